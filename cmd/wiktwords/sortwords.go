// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/lanrat/extsort"
	"golang.org/x/sync/errgroup"
)

// BuildSortedWords reads the word list written during extraction and
// produces a sorted copy with duplicate lines collapsed. The word list
// itself stays in discovery order; this artifact is for consumers that
// want set semantics. Word lists can outgrow memory for the big
// wiktionaries, hence the external sort.
func BuildSortedWords(ctx context.Context, inPath, outPath string) error {
	logger.Printf("sorting word list %s into %s", inPath, outPath)
	start := time.Now()

	inFile, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer inFile.Close()
	var in io.Reader = inFile
	var inDecomp *zstd.Decoder
	if strings.HasSuffix(inPath, ".zst") {
		inDecomp, err = zstd.NewReader(inFile)
		if err != nil {
			return err
		}
		defer inDecomp.Close()
		in = inDecomp
	}

	tmpPath := outPath + ".tmp"
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	defer os.Remove(tmpPath)
	var out io.Writer = outFile
	var outComp io.WriteCloser
	var outBuf *bufio.Writer
	if strings.HasSuffix(outPath, ".zst") {
		zw, err := zstd.NewWriter(outFile)
		if err != nil {
			return err
		}
		outComp = zw
		out = zw
	} else {
		outBuf = bufio.NewWriter(outFile)
		out = outBuf
	}

	ch := make(chan string, 10000)
	config := extsort.DefaultConfig()
	config.ChunkSize = 8 * 1024 * 1024 / 32 // 8 MiB, 32 Bytes/line avg
	config.NumWorkers = runtime.NumCPU()
	sorter, outChan, errChan := extsort.Strings(ch, config)

	g, subCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		maxLineSize := 1024 * 1024
		scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-subCtx.Done():
				return subCtx.Err()
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		sorter.Sort(subCtx)
		return writeUniqueLines(subCtx, outChan, out)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := <-errChan; err != nil {
		return err
	}

	if outComp != nil {
		if err := outComp.Close(); err != nil {
			return err
		}
	}
	if outBuf != nil {
		if err := outBuf.Flush(); err != nil {
			return err
		}
	}
	if err := outFile.Sync(); err != nil {
		return err
	}
	if err := outFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return err
	}

	logger.Printf("sorted word list in %.1fs", time.Since(start).Seconds())
	return nil
}

// writeUniqueLines drains a sorted line channel, skipping lines equal to
// their predecessor.
func writeUniqueLines(ctx context.Context, ch <-chan string, w io.Writer) error {
	var last string
	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-ch:
			if !ok {
				return nil
			}
			if !first && line == last {
				continue
			}
			first = false
			last = line
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return err
			}
		}
	}
}
