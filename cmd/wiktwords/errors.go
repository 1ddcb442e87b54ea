// SPDX-License-Identifier: MIT

package main

import "fmt"

// FormatError reports a violation of the MediaWiki export schema or a
// corrupted input stream. Format errors abort the whole run.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "format error: " + e.Msg
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// EncodingError reports non-UTF-8 bytes in tag or attribute data.
type EncodingError struct {
	Msg string
}

func (e *EncodingError) Error() string {
	return "encoding error: " + e.Msg
}

// SinkError wraps a failure of a downstream consumer: the word consumer,
// the JSON sink, or the error log. Sink failures cancel the run; the
// current page finishes its writes up to the failing call and the
// pipeline unwinds.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return "sink error: " + e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
