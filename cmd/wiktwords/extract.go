// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// ExtractOptions configures one run of the extraction pipeline.
type ExtractOptions struct {
	// InputFile is the dump to read; the extension selects the decoder.
	InputFile string

	// OutputFile, when non-empty, receives every Siteinfo and Page record
	// as concatenated JSON documents. A ".zst" or ".br" extension selects
	// a compression layer.
	OutputFile string

	// OutputPretty indents the JSON documents.
	OutputPretty bool

	// WordConsumer receives each extracted word, sequentially, in
	// discovery order. May be nil. A returned error cancels the run.
	WordConsumer WordConsumer

	// ErrorLogFile collects per-page parser and classifier errors.
	// Required; the file is created or truncated.
	ErrorLogFile string
}

// ExtractWordsFromDump runs the full pipeline over one dump file:
// bytes -> XML events -> schema records -> section tree -> words.
// The pipeline is strictly sequential and holds at most one page of state.
func ExtractWordsFromDump(opts *ExtractOptions) error {
	if opts.InputFile == "" {
		return errors.New("no input file given")
	}
	if opts.ErrorLogFile == "" {
		return errors.New("no error log path given")
	}

	dump, err := OpenDumpFile(opts.InputFile)
	if err != nil {
		return err
	}
	defer dump.Close()

	errlog, err := newErrorLog(opts.ErrorLogFile)
	if err != nil {
		return err
	}
	defer errlog.Close()

	var sink *recordWriter
	if opts.OutputFile != "" {
		sink, err = newRecordWriter(opts.OutputFile, opts.OutputPretty)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	logger.Printf("parsing dump file %s (%d MiB)", opts.InputFile, dump.Size()/(1<<20))
	start := time.Now()

	numPages, numWords := 0, 0
	onSiteinfo := func(si *Siteinfo) error {
		if sink == nil {
			return nil
		}
		if err := sink.WriteRecord(si); err != nil {
			return &SinkError{Err: err}
		}
		return nil
	}
	onPage := func(page *Page) error {
		numPages++
		if sink != nil {
			if err := sink.WriteRecord(page); err != nil {
				return &SinkError{Err: err}
			}
		}

		// Ignored titles must stay out of the error log, so they never
		// reach the wikitext parser. Everything else, redirects
		// included, flows through parser and classifier; a body
		// without a level-1 heading earns its classification error.
		if ignoredTitleRe.MatchString(page.Title) {
			return nil
		}
		var content string
		if page.Revision.Text != nil {
			content = page.Revision.Text.Content
		}

		var pageErrs []error
		collect := func(err error) { pageErrs = append(pageErrs, err) }
		tree := ParseWikitext(page.Title, content, collect)
		consume := func(w Word) error {
			numWords++
			if opts.WordConsumer == nil {
				return nil
			}
			return opts.WordConsumer(w)
		}
		if err := ExtractPageWords(page.Title, tree, consume, collect); err != nil {
			return &SinkError{Err: err}
		}
		if len(pageErrs) > 0 {
			if err := errlog.writePage(page.Title, pageErrs, content); err != nil {
				return err
			}
		}
		return nil
	}

	progress := newProgressReporter(dump)
	if err := parseMediawiki(newEventReader(dump), onSiteinfo, onPage, progress.tick); err != nil {
		return err
	}

	if sink != nil {
		if err := sink.Close(); err != nil {
			return &SinkError{Err: err}
		}
	}
	if err := errlog.Close(); err != nil {
		return &SinkError{Err: err}
	}

	logger.Printf("extracted %d words from %d pages in %.1fs",
		numWords, numPages, time.Since(start).Seconds())
	return nil
}

// recordWriter writes one JSON document per record, concatenated without
// array framing or delimiters.
type recordWriter struct {
	file   *os.File
	comp   io.WriteCloser
	buf    *bufio.Writer
	w      io.Writer
	pretty bool
}

func newRecordWriter(path string, pretty bool) (*recordWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &recordWriter{file: file, pretty: pretty}
	switch {
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		w.comp = zw
		w.w = zw
	case strings.HasSuffix(path, ".br"):
		bw := brotli.NewWriterLevel(file, 6)
		w.comp = bw
		w.w = bw
	default:
		w.buf = bufio.NewWriter(file)
		w.w = w.buf
	}
	return w, nil
}

func (w *recordWriter) WriteRecord(record interface{}) error {
	var data []byte
	var err error
	if w.pretty {
		data, err = json.MarshalIndent(record, "", "  ")
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return err
	}
	_, err = w.w.Write(data)
	return err
}

func (w *recordWriter) Close() error {
	if w.file == nil {
		return nil
	}
	var firstErr error
	if w.comp != nil {
		firstErr = w.comp.Close()
	}
	if w.buf != nil {
		firstErr = w.buf.Flush()
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.file = nil
	return firstErr
}

// errorLog is the buffered per-page error report. Write failures are
// fatal to the run.
type errorLog struct {
	file *os.File
	w    *bufio.Writer
}

func newErrorLog(path string) (*errorLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &errorLog{file: file, w: bufio.NewWriter(file)}, nil
}

func (l *errorLog) writePage(title string, errs []error, content string) error {
	if _, err := fmt.Fprintf(l.w, "Page: %s\n", title); err != nil {
		return &SinkError{Err: err}
	}
	for _, e := range errs {
		if _, err := fmt.Fprintf(l.w, "%v\n", e); err != nil {
			return &SinkError{Err: err}
		}
	}
	if _, err := fmt.Fprintf(l.w, "Content: %s\n", content); err != nil {
		return &SinkError{Err: err}
	}
	return nil
}

func (l *errorLog) Close() error {
	if l.file == nil {
		return nil
	}
	firstErr := l.w.Flush()
	if err := l.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	l.file = nil
	return firstErr
}

// progressReporter logs how far into the compressed input the pipeline
// has come, at most once every ten seconds. Positions are sampled per
// iteration of the schema state machine, so reports are monotonic.
type progressReporter struct {
	dump     *DumpReader
	interval time.Duration
	last     time.Time
}

func newProgressReporter(dump *DumpReader) *progressReporter {
	return &progressReporter{
		dump:     dump,
		interval: 10 * time.Second,
		last:     time.Now(),
	}
}

func (p *progressReporter) tick() {
	now := time.Now()
	if now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	logger.Printf("Parsing input file at %d/%dMiB",
		p.dump.CompressedPosition()/(1<<20), p.dump.Size()/(1<<20))
}
