// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// Caser is stateless and safe to use concurrently by multiple goroutines.
// https://pkg.go.dev/golang.org/x/text/cases#Fold
var caser = cases.Fold()

// LanguageCode identifies a Wiktionary edition by its subdomain
// abbreviation, such as "en" for en.wiktionary.org.
type LanguageCode string

var languageEnglishNames = map[LanguageCode]string{
	"ar": "Arabic",
	"bg": "Bulgarian",
	"bn": "Bengali",
	"ca": "Catalan",
	"cs": "Czech",
	"cy": "Welsh",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"eo": "Esperanto",
	"es": "Spanish",
	"et": "Estonian",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"ga": "Irish",
	"he": "Hebrew",
	"hi": "Hindi",
	"hr": "Croatian",
	"hu": "Hungarian",
	"hy": "Armenian",
	"id": "Indonesian",
	"is": "Icelandic",
	"it": "Italian",
	"ja": "Japanese",
	"ka": "Georgian",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"ms": "Malay",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sl": "Slovenian",
	"sr": "Serbian",
	"sv": "Swedish",
	"sw": "Swahili",
	"ta": "Tamil",
	"te": "Telugu",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

func LanguageFromAbbreviation(abbr string) (LanguageCode, error) {
	if _, ok := languageEnglishNames[LanguageCode(abbr)]; ok {
		return LanguageCode(abbr), nil
	}
	return "", fmt.Errorf("unknown wiktionary language abbreviation: %q", abbr)
}

// LanguageFromEnglishName resolves names like "German" or "german";
// lookup is case-folded.
func LanguageFromEnglishName(name string) (LanguageCode, error) {
	folded := caser.String(name)
	for code, english := range languageEnglishNames {
		if caser.String(english) == folded {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown English language name: %q", name)
}

func (c LanguageCode) EnglishName() string {
	return languageEnglishNames[c]
}

func (c LanguageCode) WiktionaryAbbreviation() string {
	return string(c)
}

// AllLanguages returns the known language codes in abbreviation order.
func AllLanguages() []LanguageCode {
	codes := make([]LanguageCode, 0, len(languageEnglishNames))
	for code := range languageEnglishNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
