// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"
)

// The extractor only cares about the section skeleton of a page: headings
// and their nesting. Inline markup below the section boundary is never
// inspected, so the parser collects headlines into a tree and discards
// everything else. It always returns a tree, even for malformed input;
// defects go to the error callback and the caller proceeds with whatever
// structure could be recovered.

type Headline struct {
	Level int
	Label string
}

type Section struct {
	Headline    Headline
	Subsections []*Section
}

// ParseWikitext parses the section structure of one page. The title is
// used for diagnostics only; it also labels the synthetic root when the
// text contains no level-1 heading at all.
func ParseWikitext(title, text string, errFn func(error)) *Section {
	var root *Section
	stack := make([]*Section, 0, 6)

	for lineNo, line := range strings.Split(text, "\n") {
		level, label, ok := parseHeadingLine(line, lineNo+1, title, errFn)
		if !ok {
			continue
		}
		sec := &Section{Headline: Headline{Level: level, Label: label}}

		if root == nil {
			root = sec
			stack = append(stack[:0], sec)
			continue
		}

		// Pop to the nearest enclosing section. A heading at or above
		// the root level has no legal parent; report it and keep the
		// section as a child of the root so its own subsections are
		// not lost.
		for len(stack) > 1 && stack[len(stack)-1].Headline.Level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		if parent == root && level <= root.Headline.Level {
			errFn(fmt.Errorf("page %q line %d: heading %q at level %d outside the root section",
				title, lineNo+1, label, level))
		}
		parent.Subsections = append(parent.Subsections, sec)
		stack = append(stack, sec)
	}

	if root == nil {
		root = &Section{Headline: Headline{Level: 0, Label: title}}
	}
	return root
}

// parseHeadingLine recognizes wikitext headings of the form "== Label ==".
// Returns ok=false for ordinary content lines.
func parseHeadingLine(line string, lineNo int, title string, errFn func(error)) (int, string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < 2 || trimmed[0] != '=' {
		return 0, "", false
	}

	open := 0
	for open < len(trimmed) && trimmed[open] == '=' {
		open++
	}
	rest := trimmed[open:]
	closing := 0
	for closing < len(rest) && rest[len(rest)-1-closing] == '=' {
		closing++
	}
	if closing == 0 {
		// A line of equals signs with no closing run is content, for
		// example a "=" bullet; but "== Foo" is a broken heading.
		if open < len(trimmed) {
			errFn(fmt.Errorf("page %q line %d: heading %q has no closing equals signs", title, lineNo, line))
		}
		return 0, "", false
	}
	label := strings.TrimSpace(rest[:len(rest)-closing])
	if label == "" {
		errFn(fmt.Errorf("page %q line %d: heading %q has an empty label", title, lineNo, line))
		return 0, "", false
	}
	if closing != open {
		errFn(fmt.Errorf("page %q line %d: heading %q opens with %d equals signs but closes with %d",
			title, lineNo, line, open, closing))
	}
	level := open
	if closing < open {
		level = closing
	}
	if level > 6 {
		level = 6
	}
	return level, label, true
}
