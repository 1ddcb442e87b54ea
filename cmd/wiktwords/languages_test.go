// SPDX-License-Identifier: MIT

package main

import (
	"testing"
)

func TestLanguageFromAbbreviation(t *testing.T) {
	code, err := LanguageFromAbbreviation("de")
	if err != nil {
		t.Fatal(err)
	}
	if code.EnglishName() != "German" {
		t.Errorf("got %q, want German", code.EnglishName())
	}

	if _, err := LanguageFromAbbreviation("qqx"); err == nil {
		t.Error("want error for unknown abbreviation")
	}
}

func TestLanguageFromEnglishName(t *testing.T) {
	tests := []struct {
		name string
		want LanguageCode
	}{
		{"English", "en"},
		{"english", "en"},
		{"GERMAN", "de"},
		{"Finnish", "fi"},
	}
	for _, tc := range tests {
		code, err := LanguageFromEnglishName(tc.name)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if code != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, code, tc.want)
		}
	}

	if _, err := LanguageFromEnglishName("Klingon"); err == nil {
		t.Error("want error for unknown name")
	}
}

func TestAllLanguagesSorted(t *testing.T) {
	langs := AllLanguages()
	if len(langs) < 10 {
		t.Fatalf("suspiciously few languages: %d", len(langs))
	}
	for i := 1; i < len(langs); i++ {
		if langs[i-1] >= langs[i] {
			t.Fatalf("not sorted at %d: %q >= %q", i, langs[i-1], langs[i])
		}
	}
}
