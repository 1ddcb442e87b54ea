// SPDX-License-Identifier: MIT

package main

import (
	"encoding/xml"
	"io"
	"unicode/utf8"
)

// The schema parsers consume a reduced event alphabet: Start, End, Empty,
// Text and EOF. Everything else the tokenizer produces (comments, the XML
// declaration, processing instructions, DOCTYPE) is logged and dropped,
// and whitespace-only character data is dropped silently.
type eventKind int

const (
	eventStart eventKind = iota
	eventEnd
	eventEmpty
	eventText
	eventEOF
)

func (k eventKind) String() string {
	switch k {
	case eventStart:
		return "Start"
	case eventEnd:
		return "End"
	case eventEmpty:
		return "Empty"
	case eventText:
		return "Text"
	case eventEOF:
		return "Eof"
	}
	return "?"
}

type xmlEvent struct {
	kind  eventKind
	name  string     // tag name for Start, End, Empty
	attrs []xml.Attr // attributes for Start, Empty
	text  string     // unescaped character data for Text
}

// eventReader adapts the stdlib pull tokenizer to the reduced alphabet.
// encoding/xml folds a self-closing tag into a Start immediately followed
// by its End; the reader restores the Empty event by one-token lookahead.
type eventReader struct {
	dec     *xml.Decoder
	pending xml.Token
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{dec: xml.NewDecoder(r)}
}

func (r *eventReader) token() (xml.Token, error) {
	if r.pending != nil {
		t := r.pending
		r.pending = nil
		return t, nil
	}
	return r.dec.Token()
}

func (r *eventReader) next() (xmlEvent, error) {
	for {
		tok, err := r.token()
		if err == io.EOF {
			return xmlEvent{kind: eventEOF}, nil
		}
		if err != nil {
			return xmlEvent{}, formatErrorf("malformed XML: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return r.finishStart(t)

		case xml.EndElement:
			return xmlEvent{kind: eventEnd, name: t.Name.Local}, nil

		case xml.CharData:
			if isXMLWhitespace(t) {
				continue
			}
			text := string(t)
			if !utf8.ValidString(text) {
				return xmlEvent{}, &EncodingError{Msg: "character data is not valid UTF-8"}
			}
			return xmlEvent{kind: eventText, text: text}, nil

		case xml.Comment:
			logger.Printf("dropping XML comment (%d bytes)", len(t))
		case xml.ProcInst:
			logger.Printf("dropping XML processing instruction %q", t.Target)
		case xml.Directive:
			logger.Printf("dropping XML directive (%d bytes)", len(t))
		}
	}
}

// finishStart peeks past a start tag to decide whether the element is
// empty. Ignorable tokens (comments, whitespace runs) are dropped while
// peeking; the first decisive token is either the element's own end tag,
// which turns the pair into an Empty event, or gets stashed for the next
// call.
func (r *eventReader) finishStart(t xml.StartElement) (xmlEvent, error) {
	start := xmlEvent{
		kind:  eventStart,
		name:  t.Name.Local,
		attrs: copyAttrs(t.Attr),
	}
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return start, nil
		}
		if err != nil {
			return xmlEvent{}, formatErrorf("malformed XML: %v", err)
		}
		switch t2 := tok.(type) {
		case xml.EndElement:
			if t2.Name.Local == start.name {
				start.kind = eventEmpty
				return start, nil
			}
			r.pending = t2
			return start, nil
		case xml.StartElement:
			r.pending = t2.Copy()
			return start, nil
		case xml.CharData:
			if isXMLWhitespace(t2) {
				continue
			}
			r.pending = xml.CharData(append([]byte(nil), t2...))
			return start, nil
		case xml.Comment:
			logger.Printf("dropping XML comment (%d bytes)", len(t2))
		case xml.ProcInst:
			logger.Printf("dropping XML processing instruction %q", t2.Target)
		case xml.Directive:
			logger.Printf("dropping XML directive (%d bytes)", len(t2))
		}
	}
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func isXMLWhitespace(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
