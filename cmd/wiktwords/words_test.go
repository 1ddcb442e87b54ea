// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"testing"
)

// extractFromText runs the section parser and the classifier over one
// page, returning the emitted words as "word/lang/type" strings and all
// collected error messages.
func extractFromText(t *testing.T, title, text string) ([]string, []string) {
	t.Helper()
	logger = log.New(&bytes.Buffer{}, "", log.Lshortfile)

	var errs []string
	collect := func(err error) { errs = append(errs, err.Error()) }
	tree := ParseWikitext(title, text, collect)

	var words []string
	consume := func(w Word) error {
		words = append(words, fmt.Sprintf("%s/%s/%s", w.Word, w.LanguageEnglishName, w.WordType))
		return nil
	}
	if err := ExtractPageWords(title, tree, consume, collect); err != nil {
		t.Fatal(err)
	}
	return words, errs
}

func TestExtractStubLanguage(t *testing.T) {
	words, errs := extractFromText(t, "cat", "= cat =\n== English ==\n")
	if got, want := strings.Join(words, "|"), "cat/English/Unknown"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestExtractTopLevelShape(t *testing.T) {
	text := "= cat =\n== English ==\n=== Noun ===\nA feline.\n=== Verb ===\nTo cat.\n"
	words, errs := extractFromText(t, "cat", text)
	if got, want := strings.Join(words, "|"), "cat/English/Noun|cat/English/Verb"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestExtractBottomLevelShape(t *testing.T) {
	text := "= bank =\n== English ==\n=== Etymology 1 ===\n==== Noun ====\n==== Verb ====\n=== Etymology 2 ===\n==== Noun ====\n"
	words, errs := extractFromText(t, "bank", text)
	want := "bank/English/Noun|bank/English/Verb|bank/English/Noun"
	if got := strings.Join(words, "|"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestExtractMixedShape(t *testing.T) {
	text := "= mix =\n== English ==\n=== Noun ===\n=== Etymology 1 ===\n==== Verb ====\n"
	words, errs := extractFromText(t, "mix", text)

	sort.Strings(words)
	want := "mix/English/Noun|mix/English/Verb"
	if got := strings.Join(words, "|"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	found := false
	for _, e := range errs {
		if strings.Contains(e, "Found both toplevel and bottomlevel details for language English") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing mixed-shape error, got %v", errs)
	}
}

func TestExtractIgnoredTitle(t *testing.T) {
	for _, title := range []string{
		"Template:foo",
		"Wiktionary:Beer parlour",
		"Appendix:Colors",
		"Module:links",
		"water/derived terms",
	} {
		words, errs := extractFromText(t, title, "arbitrary {{content}}\n== stuff ==\n")
		if len(words) != 0 {
			t.Errorf("%s: unexpected words %v", title, words)
		}
		if len(errs) != 0 {
			t.Errorf("%s: unexpected errors %v", title, errs)
		}
	}
}

func TestExtractIgnoredLanguage(t *testing.T) {
	text := "= cat =\n== Translingual ==\n=== Symbol ===\n== English ==\n=== Noun ===\n"
	words, errs := extractFromText(t, "cat", text)
	if got, want := strings.Join(words, "|"), "cat/English/Noun"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestExtractRootNotLevelOne(t *testing.T) {
	words, errs := extractFromText(t, "cat", "== English ==\n=== Noun ===\n")
	if len(words) != 0 {
		t.Errorf("unexpected words %v", words)
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "Root section is not at headline level 1") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing root-level error, got %v", errs)
	}
}

// Unknown subsections must only surface in the numbered-etymology shape;
// in top-level shape they are presumed fine and dropped.
func TestUnknownSubsectionBuffering(t *testing.T) {
	topLevel := "= cat =\n== English ==\n=== Noun ===\n=== Mystery ===\n"
	_, errs := extractFromText(t, "cat", topLevel)
	for _, e := range errs {
		if strings.Contains(e, "Mystery") {
			t.Errorf("top-level shape surfaced buffered error %q", e)
		}
	}

	bottomLevel := "= cat =\n== English ==\n=== Etymology 1 ===\n==== Noun ====\n=== Mystery ===\n"
	_, errs = extractFromText(t, "cat", bottomLevel)
	found := false
	for _, e := range errs {
		if strings.Contains(e, "Unknown subsection of language") && strings.Contains(e, "Mystery") {
			found = true
		}
	}
	if !found {
		t.Errorf("bottom-level shape did not surface buffered error, got %v", errs)
	}
}

func TestUnknownDetailsSubsection(t *testing.T) {
	text := "= cat =\n== English ==\n=== Etymology 1 ===\n==== Gibberish ====\n"
	words, errs := extractFromText(t, "cat", text)
	if len(words) != 0 {
		t.Errorf("unexpected words %v", words)
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "Unknown details subsection") && strings.Contains(e, "Gibberish") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing details error, got %v", errs)
	}
}

func TestIgnoredSubsectionsAreSilent(t *testing.T) {
	text := "= cat =\n== English ==\n=== Etymology 1 ===\n==== Noun ====\n==== Pronunciation ====\n==== Pronunciation 2 ====\n==== Derived terms ====\n==== Usage notes ====\n"
	words, errs := extractFromText(t, "cat", text)
	if got, want := strings.Join(words, "|"), "cat/English/Noun"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestConsumerErrorPropagates(t *testing.T) {
	logger = log.New(&bytes.Buffer{}, "", log.Lshortfile)
	tree := ParseWikitext("cat", "= cat =\n== English ==\n=== Noun ===\n", func(error) {})
	broken := errors.New("sink is broken")
	err := ExtractPageWords("cat", tree, func(Word) error { return broken }, func(error) {})
	if err != broken {
		t.Errorf("want consumer error to propagate, got %v", err)
	}
}

func TestWordTypePatterns(t *testing.T) {
	for _, label := range []string{
		"Noun", "Proper noun", "Verb", "Adjective", "Adverb", "Pronoun",
		"Preposition", "Postposition", "Conjunction", "Article", "Particle",
		"Determiner", "Numeral", "Number", "Letter", "Symbol", "Syllable",
		"Phrase", "Idiom", "Proverb", "Prefix", "Suffix", "Infix", "Interfix",
		"Circumfix", "Affix", "Root", "Contraction", "Combining form",
		"Participle", "Gerund", "Gerundive", "Conjugation", "Inflection",
		"Classifier", "Clitic", "Enclitic", "Ideophone", "Onomatopoeia",
		"Phoneme", "Ligature", "Counter", "Punctuation mark",
		"Diacritical mark", "Multiple parts of speech", "Compound part",
		"Relative", "Interjection",
	} {
		if !wordTypeRe.MatchString(label) {
			t.Errorf("word type %q does not match", label)
		}
	}
	for _, label := range []string{"Mystery", "Pronunciation", "Etymology 1"} {
		if wordTypeRe.MatchString(label) {
			t.Errorf("%q should not match the word type pattern", label)
		}
	}
}

func TestIgnoredSubsectionPatterns(t *testing.T) {
	for _, label := range []string{
		"Etymology", "Etymology 1", "Pronunciation", "Pronunciation 3",
		"Translations", "Synonyms", "Antonyms", "Hyponyms", "Hypernyms",
		"Derived terms", "Related terms", "Descendants", "See also",
		"References", "Further reading", "Anagrams", "Usage notes",
		"Alternative forms", "Declension", "Glyph origin", "Kanji", "Hanja",
		"Han character", "Hanzi", "Readings",
	} {
		if !ignoredSubsectionRe.MatchString(label) {
			t.Errorf("subsection %q does not match", label)
		}
	}
	if ignoredSubsectionRe.MatchString("Mystery") {
		t.Error(`"Mystery" should not match the ignored subsection pattern`)
	}
}
