// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// Wikimedia assembles its dumps from parallel compression workers, so a
// .xml.bz2 dump is a concatenation of independent bzip2 members. The
// github.com/dsnet/compress decoder handles such multi-stream files;
// the stdlib decoder does not.
const dumpBufferSize = 1 << 20

// DumpReader streams the decompressed bytes of a MediaWiki XML dump.
// It reports progress against the underlying compressed file, because
// that is the size an operator sees on disk.
type DumpReader struct {
	file    *os.File
	counter *countingReader
	decomp  io.Closer
	reader  *bufio.Reader
	size    int64
}

// OpenDumpFile opens path and classifies it by extension: ".xml.bz2" is
// decompressed on the fly, ".xml" is read as-is, anything else is an error.
func OpenDumpFile(path string) (*DumpReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	d := &DumpReader{
		file:    file,
		counter: &countingReader{r: file},
		size:    stat.Size(),
	}
	switch {
	case strings.HasSuffix(path, ".xml.bz2"):
		bz, err := bzip2.NewReader(d.counter, &bzip2.ReaderConfig{})
		if err != nil {
			file.Close()
			return nil, err
		}
		d.decomp = bz
		d.reader = bufio.NewReaderSize(bz, dumpBufferSize)
	case strings.HasSuffix(path, ".xml"):
		d.reader = bufio.NewReaderSize(d.counter, dumpBufferSize)
	default:
		file.Close()
		return nil, formatErrorf("unsupported file extension in %q; want .xml or .xml.bz2", path)
	}
	return d, nil
}

func (d *DumpReader) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

// CompressedPosition returns how many bytes of the underlying file have
// been consumed so far. For bzip2 input this lags the decompressed
// position; progress is reported against Size().
func (d *DumpReader) CompressedPosition() int64 {
	return d.counter.pos
}

// Size returns the byte length of the underlying file.
func (d *DumpReader) Size() int64 {
	return d.size
}

func (d *DumpReader) Close() error {
	var firstErr error
	if d.decomp != nil {
		firstErr = d.decomp.Close()
	}
	if err := d.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type countingReader struct {
	r   io.Reader
	pos int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}
