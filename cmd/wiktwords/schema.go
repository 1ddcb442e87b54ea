// SPDX-License-Identifier: MIT

package main

import (
	"encoding/xml"
	"strconv"
)

// Siteinfo is recorded once per dump, when </siteinfo> closes.
type Siteinfo struct {
	Sitename   string      `json:"sitename"`
	Dbname     string      `json:"dbname"`
	Base       string      `json:"base"`
	Generator  string      `json:"generator"`
	Case       string      `json:"case"`
	Namespaces []Namespace `json:"namespaces"`
}

type Namespace struct {
	Key  int64  `json:"key"`
	Case string `json:"case"`
	Name string `json:"name"`
}

// Page is built up between <page> and </page> and released right after
// its consumers ran; no page outlives its close tag.
type Page struct {
	Title     string   `json:"title"`
	Namespace int64    `json:"namespace"`
	ID        int64    `json:"id"`
	Redirect  *string  `json:"redirect,omitempty"`
	Revision  Revision `json:"revision"`
}

type Revision struct {
	ID          int64        `json:"id"`
	ParentID    *int64       `json:"parentid,omitempty"`
	Timestamp   string       `json:"timestamp"`
	Contributor *Contributor `json:"contributor,omitempty"`
	Comment     *string      `json:"comment,omitempty"`
	Model       string       `json:"model"`
	Format      string       `json:"format"`
	Text        *Text        `json:"text,omitempty"`
	SHA1        string       `json:"sha1"`
	Minor       bool         `json:"minor"`
}

// Contributor is a tagged variant; exactly one of the two fields is set.
// The JSON encoding is the tagged-object form, {"User":{...}} or
// {"Anonymous":{...}}.
type Contributor struct {
	User      *UserContributor      `json:"User,omitempty"`
	Anonymous *AnonymousContributor `json:"Anonymous,omitempty"`
}

type UserContributor struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}

type AnonymousContributor struct {
	IP string `json:"ip"`
}

type Text struct {
	XMLSpace string `json:"xml_space"`
	Content  string `json:"content"`
}

// parseMediawiki drives the document-level state machine:
//
//	mediawiki -> siteinfo -> page* -> </mediawiki> -> EOF
//
// Unexpected top-level tags are fatal; this is a strict schema validator,
// not a permissive reader. The progress callback runs once per iteration.
func parseMediawiki(r *eventReader, onSiteinfo func(*Siteinfo) error, onPage func(*Page) error, progress func()) error {
	e, err := r.next()
	if err != nil {
		return err
	}
	if e.kind != eventStart || e.name != "mediawiki" {
		return formatErrorf("expected <mediawiki> root element, got %s %q", e.kind, e.name)
	}

	seenSiteinfo := false
	for {
		if progress != nil {
			progress()
		}
		e, err := r.next()
		if err != nil {
			return err
		}
		switch e.kind {
		case eventStart:
			switch e.name {
			case "siteinfo":
				if seenSiteinfo {
					return formatErrorf("duplicate <siteinfo> element")
				}
				seenSiteinfo = true
				si, err := parseSiteinfo(r)
				if err != nil {
					return err
				}
				if err := onSiteinfo(si); err != nil {
					return err
				}
			case "page":
				page, err := parsePage(r)
				if err != nil {
					return err
				}
				if err := onPage(page); err != nil {
					return err
				}
			default:
				return formatErrorf("unexpected element <%s> below <mediawiki>", e.name)
			}
		case eventEnd:
			if e.name != "mediawiki" {
				return formatErrorf("unexpected </%s> below <mediawiki>", e.name)
			}
			e, err := r.next()
			if err != nil {
				return err
			}
			if e.kind != eventEOF {
				return formatErrorf("trailing %s event after </mediawiki>", e.kind)
			}
			return nil
		case eventEOF:
			return formatErrorf("unexpected end of document inside <mediawiki>")
		default:
			return formatErrorf("unexpected %s event below <mediawiki>", e.kind)
		}
	}
}

func parseSiteinfo(r *eventReader) (*Siteinfo, error) {
	var si Siteinfo
	seen := make(map[string]bool, 6)
	for {
		e, err := r.next()
		if err != nil {
			return nil, err
		}
		switch e.kind {
		case eventStart:
			if seen[e.name] {
				return nil, formatErrorf("duplicate <%s> inside <siteinfo>", e.name)
			}
			seen[e.name] = true
			switch e.name {
			case "sitename":
				si.Sitename, err = readTextElement(r, e.name)
			case "dbname":
				si.Dbname, err = readTextElement(r, e.name)
			case "base":
				si.Base, err = readTextElement(r, e.name)
			case "generator":
				si.Generator, err = readTextElement(r, e.name)
			case "case":
				si.Case, err = readTextElement(r, e.name)
			case "namespaces":
				si.Namespaces, err = parseNamespaces(r)
			default:
				return nil, formatErrorf("unexpected element <%s> inside <siteinfo>", e.name)
			}
			if err != nil {
				return nil, err
			}
		case eventEnd:
			if e.name != "siteinfo" {
				return nil, formatErrorf("unexpected </%s> inside <siteinfo>", e.name)
			}
			for _, field := range []string{"sitename", "dbname", "base", "generator", "case", "namespaces"} {
				if !seen[field] {
					return nil, formatErrorf("missing <%s> inside <siteinfo>", field)
				}
			}
			return &si, nil
		default:
			return nil, formatErrorf("unexpected %s event inside <siteinfo>", e.kind)
		}
	}
}

func parseNamespaces(r *eventReader) ([]Namespace, error) {
	namespaces := make([]Namespace, 0, 32)
	total := 0
	for {
		e, err := r.next()
		if err != nil {
			return nil, err
		}
		switch e.kind {
		case eventStart:
			if e.name != "namespace" {
				return nil, formatErrorf("unexpected element <%s> inside <namespaces>", e.name)
			}
			ns, err := parseNamespace(r, e.attrs)
			if err != nil {
				return nil, err
			}
			namespaces = append(namespaces, ns)
			total++
		case eventEmpty:
			if e.name != "namespace" {
				return nil, formatErrorf("unexpected empty element <%s/> inside <namespaces>", e.name)
			}
			// The main namespace has no name; skip it.
			key, _ := attrValue(e.attrs, "key")
			logger.Printf("skipping nameless namespace with key %q", key)
			total++
		case eventEnd:
			if e.name != "namespaces" {
				return nil, formatErrorf("unexpected </%s> inside <namespaces>", e.name)
			}
			if total == 0 {
				return nil, formatErrorf("<namespaces> contains no namespace")
			}
			return namespaces, nil
		default:
			return nil, formatErrorf("unexpected %s event inside <namespaces>", e.kind)
		}
	}
}

func parseNamespace(r *eventReader, attrs []xml.Attr) (Namespace, error) {
	var ns Namespace
	key, ok := attrValue(attrs, "key")
	if !ok {
		return ns, formatErrorf("<namespace> without key attribute")
	}
	k, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return ns, formatErrorf("<namespace> key %q is not an integer", key)
	}
	ns.Key = k
	caseAttr, ok := attrValue(attrs, "case")
	if !ok {
		return ns, formatErrorf("<namespace> without case attribute")
	}
	ns.Case = caseAttr
	ns.Name, err = readTextElement(r, "namespace")
	if err != nil {
		return ns, err
	}
	return ns, nil
}

func parsePage(r *eventReader) (*Page, error) {
	var page Page
	seen := make(map[string]bool, 4)
	for {
		e, err := r.next()
		if err != nil {
			return nil, err
		}
		switch e.kind {
		case eventStart:
			if seen[e.name] {
				return nil, formatErrorf("duplicate <%s> inside <page>", e.name)
			}
			seen[e.name] = true
			switch e.name {
			case "title":
				page.Title, err = readTextElement(r, e.name)
			case "ns":
				page.Namespace, err = readIntElement(r, e.name)
			case "id":
				page.ID, err = readIntElement(r, e.name)
			case "revision":
				var rev *Revision
				rev, err = parseRevision(r)
				if rev != nil {
					page.Revision = *rev
				}
			default:
				return nil, formatErrorf("unexpected element <%s> inside <page>", e.name)
			}
			if err != nil {
				return nil, err
			}
		case eventEmpty:
			if e.name != "redirect" {
				return nil, formatErrorf("unexpected empty element <%s/> inside <page>", e.name)
			}
			target, ok := attrValue(e.attrs, "title")
			if !ok {
				return nil, formatErrorf("<redirect/> without title attribute in page %q", page.Title)
			}
			page.Redirect = &target
		case eventEnd:
			if e.name != "page" {
				return nil, formatErrorf("unexpected </%s> inside <page>", e.name)
			}
			for _, field := range []string{"title", "ns", "id", "revision"} {
				if !seen[field] {
					return nil, formatErrorf("missing <%s> inside <page> %q", field, page.Title)
				}
			}
			return &page, nil
		case eventText:
			return nil, formatErrorf("unexpected text inside <page>: %q", e.text)
		default:
			return nil, formatErrorf("unexpected %s event inside <page>", e.kind)
		}
	}
}

func parseRevision(r *eventReader) (*Revision, error) {
	var rev Revision
	seen := make(map[string]bool, 8)
	for {
		e, err := r.next()
		if err != nil {
			return nil, err
		}
		switch e.kind {
		case eventStart:
			if seen[e.name] {
				return nil, formatErrorf("duplicate <%s> inside <revision>", e.name)
			}
			seen[e.name] = true
			switch e.name {
			case "id":
				rev.ID, err = readIntElement(r, e.name)
			case "parentid":
				var parentID int64
				parentID, err = readIntElement(r, e.name)
				rev.ParentID = &parentID
			case "timestamp":
				rev.Timestamp, err = readTextElement(r, e.name)
			case "contributor":
				rev.Contributor, err = parseContributor(r)
			case "comment":
				var comment string
				comment, err = readTextElement(r, e.name)
				rev.Comment = &comment
			case "model":
				rev.Model, err = readTextElement(r, e.name)
			case "format":
				rev.Format, err = readTextElement(r, e.name)
			case "text":
				rev.Text, err = parseText(r, e.attrs)
			case "sha1":
				rev.SHA1, err = readTextElement(r, e.name)
			default:
				return nil, formatErrorf("unexpected element <%s> inside <revision>", e.name)
			}
			if err != nil {
				return nil, err
			}
		case eventEmpty:
			switch e.name {
			case "minor":
				rev.Minor = true
			case "comment", "text", "contributor":
				// Deleted or empty; the field stays absent.
			default:
				return nil, formatErrorf("unexpected empty element <%s/> inside <revision>", e.name)
			}
		case eventEnd:
			if e.name != "revision" {
				return nil, formatErrorf("unexpected </%s> inside <revision>", e.name)
			}
			for _, field := range []string{"id", "timestamp", "model", "format", "sha1"} {
				if !seen[field] {
					return nil, formatErrorf("missing <%s> inside <revision>", field)
				}
			}
			return &rev, nil
		case eventText:
			return nil, formatErrorf("unexpected text inside <revision>: %q", e.text)
		default:
			return nil, formatErrorf("unexpected %s event inside <revision>", e.kind)
		}
	}
}

func parseContributor(r *eventReader) (*Contributor, error) {
	var username, ip *string
	var id *int64
	for {
		e, err := r.next()
		if err != nil {
			return nil, err
		}
		switch e.kind {
		case eventStart:
			switch e.name {
			case "username":
				if username != nil {
					return nil, formatErrorf("duplicate <username> inside <contributor>")
				}
				s, err := readTextElement(r, e.name)
				if err != nil {
					return nil, err
				}
				username = &s
			case "id":
				if id != nil {
					return nil, formatErrorf("duplicate <id> inside <contributor>")
				}
				n, err := readIntElement(r, e.name)
				if err != nil {
					return nil, err
				}
				id = &n
			case "ip":
				if ip != nil {
					return nil, formatErrorf("duplicate <ip> inside <contributor>")
				}
				s, err := readTextElement(r, e.name)
				if err != nil {
					return nil, err
				}
				ip = &s
			default:
				return nil, formatErrorf("unexpected element <%s> inside <contributor>", e.name)
			}
		case eventEnd:
			if e.name != "contributor" {
				return nil, formatErrorf("unexpected </%s> inside <contributor>", e.name)
			}
			switch {
			case username != nil && id != nil && ip == nil:
				return &Contributor{User: &UserContributor{Username: *username, ID: *id}}, nil
			case username == nil && id == nil && ip != nil:
				return &Contributor{Anonymous: &AnonymousContributor{IP: *ip}}, nil
			default:
				return nil, formatErrorf("<contributor> must have either username and id, or ip")
			}
		default:
			return nil, formatErrorf("unexpected %s event inside <contributor>", e.kind)
		}
	}
}

func parseText(r *eventReader, attrs []xml.Attr) (*Text, error) {
	space, ok := attrValue(attrs, "space")
	if !ok {
		return nil, formatErrorf("<text> without xml:space attribute")
	}
	if space != "preserve" {
		return nil, formatErrorf("<text> with xml:space=%q; only \"preserve\" is accepted", space)
	}

	body, err := readTextElement(r, "text")
	if err != nil {
		return nil, err
	}

	// The bytes attribute is advisory; a mismatch is logged, not fatal.
	if declared, ok := attrValue(attrs, "bytes"); ok {
		if n, err := strconv.ParseInt(declared, 10, 64); err == nil && n != int64(len(body)) {
			logger.Printf("<text> declares %d bytes but carries %d", n, len(body))
		}
	}

	return &Text{XMLSpace: space, Content: body}, nil
}

// readTextElement consumes the text body of the current element up to its
// end tag. Child elements are schema violations.
func readTextElement(r *eventReader, name string) (string, error) {
	var body string
	for {
		e, err := r.next()
		if err != nil {
			return "", err
		}
		switch e.kind {
		case eventText:
			body += e.text
		case eventEnd:
			if e.name != name {
				return "", formatErrorf("unexpected </%s> inside <%s>", e.name, name)
			}
			return body, nil
		case eventStart, eventEmpty:
			return "", formatErrorf("unexpected element <%s> inside <%s>", e.name, name)
		case eventEOF:
			return "", formatErrorf("unexpected end of document inside <%s>", name)
		}
	}
}

func readIntElement(r *eventReader, name string) (int64, error) {
	body, err := readTextElement(r, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return 0, formatErrorf("<%s> value %q is not a 64-bit integer", name, body)
	}
	return n, nil
}
