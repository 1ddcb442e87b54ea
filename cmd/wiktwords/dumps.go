// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultDumpIndexURL = "https://dumps.wikimedia.org/backup-index.html"
	DefaultDumpBaseURL  = "https://dumps.wikimedia.org"
)

// https://foundation.wikimedia.org/wiki/Policy:User-Agent_policy
const userAgent = "WiktwordsBot/1.0 (https://github.com/wikilex/wiktwords)"

var (
	dumpLanguageRe = regexp.MustCompile(`<a href="([a-z\-]{2,20})wiktionary/[0-9]{8}">`)
	dumpDateRe     = regexp.MustCompile(`<a href=".*?([0-9]{8})/?">`)
)

// The job in dumpstatus.json that produces the multi-stream articles dump.
const multistreamJob = "articlesmultistreamdump"

// DumpStatus mirrors the dumpstatus.json document Wikimedia publishes
// next to each dump run.
type DumpStatus struct {
	Version string             `json:"version"`
	Jobs    map[string]DumpJob `json:"jobs"`
}

type DumpJob struct {
	Status  string              `json:"status"`
	Updated string              `json:"updated"`
	Files   map[string]DumpFile `json:"files"`
}

type DumpFile struct {
	Size int64  `json:"size"`
	URL  string `json:"url"`
	MD5  string `json:"md5"`
	SHA1 string `json:"sha1"`
}

func fetchBody(client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("failed to fetch %s; StatusCode=%d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ListWiktionaryDumpLanguages scrapes the dump index page for wiktionary
// editions that have at least one dump run. Unknown abbreviations are
// logged and skipped.
func ListWiktionaryDumpLanguages(client *http.Client, indexURL string) ([]LanguageCode, error) {
	body, err := fetchBody(client, indexURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[LanguageCode]bool, 100)
	result := make([]LanguageCode, 0, 100)
	for _, match := range dumpLanguageRe.FindAllSubmatch(body, -1) {
		abbr := string(match[1])
		code, err := LanguageFromAbbreviation(abbr)
		if err != nil {
			logger.Printf("unknown language abbreviation %q in dump index", abbr)
			continue
		}
		if !seen[code] {
			seen[code] = true
			result = append(result, code)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// ListAvailableDates returns the dump dates available for one language,
// sorted ascending with duplicates removed.
func ListAvailableDates(client *http.Client, baseURL string, lang LanguageCode) ([]string, error) {
	url := fmt.Sprintf("%s/%swiktionary/", baseURL, lang.WiktionaryAbbreviation())
	body, err := fetchBody(client, url)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, 30)
	dates := make([]string, 0, 30)
	for _, match := range dumpDateRe.FindAllSubmatch(body, -1) {
		date := string(match[1])
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

func FetchDumpStatus(client *http.Client, baseURL string, lang LanguageCode, date string) (*DumpStatus, error) {
	url := fmt.Sprintf("%s/%swiktionary/%s/dumpstatus.json",
		baseURL, lang.WiktionaryAbbreviation(), date)
	body, err := fetchBody(client, url)
	if err != nil {
		return nil, err
	}
	var status DumpStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("malformed dump status at %s: %w", url, err)
	}
	return &status, nil
}

// LatestCompleteDump resolves the newest multi-stream articles dump that
// is safe to download. The most recent date may still be in progress, so
// the second-to-last one is selected.
func LatestCompleteDump(client *http.Client, baseURL string, lang LanguageCode) (date, filename string, file *DumpFile, err error) {
	dates, err := ListAvailableDates(client, baseURL, lang)
	if err != nil {
		return "", "", nil, err
	}
	if len(dates) < 2 {
		return "", "", nil, fmt.Errorf("less than two available dump dates for %s: %v",
			lang.EnglishName(), dates)
	}
	date = dates[len(dates)-2]

	status, err := FetchDumpStatus(client, baseURL, lang, date)
	if err != nil {
		return "", "", nil, err
	}
	job, ok := status.Jobs[multistreamJob]
	if !ok {
		return "", "", nil, fmt.Errorf("dump %s/%s has no %s job", lang, date, multistreamJob)
	}
	if job.Status != "done" {
		return "", "", nil, fmt.Errorf("dump %s/%s job %s has status %q",
			lang, date, multistreamJob, job.Status)
	}

	names := make([]string, 0, len(job.Files))
	for name := range job.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasSuffix(name, "pages-articles-multistream.xml.bz2") {
			f := job.Files[name]
			return date, name, &f, nil
		}
	}
	return "", "", nil, fmt.Errorf("dump %s/%s has no multistream articles file", lang, date)
}

// ResolveDumpFileURL turns the URL field of a dump status file, which is
// usually a path-absolute reference, into a full URL.
func ResolveDumpFileURL(baseURL string, file *DumpFile) string {
	if strings.HasPrefix(file.URL, "http://") || strings.HasPrefix(file.URL, "https://") {
		return file.URL
	}
	return strings.TrimSuffix(baseURL, "/") + file.URL
}
