// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var logger *log.Logger

func main() {
	ctx := context.Background()

	listLanguages := flag.Bool("listLanguages", false, "list the languages wiktionary dumps are available for")
	download := flag.String("download", "", "language whose latest complete dump should be downloaded; English name or wiktionary abbreviation")
	dumpDir := flag.String("dumpDir", "dumps", "directory for downloaded dumps")
	dumpIndex := flag.String("dumpIndex", DefaultDumpIndexURL, "URL of the Wikimedia dump index page")
	dumpBase := flag.String("dumpBase", DefaultDumpBaseURL, "base URL of the Wikimedia dump server")
	input := flag.String("input", "", "dump file to extract words from (.xml or .xml.bz2)")
	output := flag.String("output", "", "optional JSON output for siteinfo and page records; a .zst or .br extension compresses")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	wordsPath := flag.String("words", "words.csv.zst", "word list output file")
	sortedPath := flag.String("sortedWords", "", "optional sorted and deduplicated word list output")
	statsPath := flag.String("stats", "", "optional word count stats JSON output")
	errorLog := flag.String("errorLog", "errors.log", "per-page error log")
	storageKey := flag.String("storage-key", "", "path to key with storage access credentials; empty reads the S3_* environment variables")
	upload := flag.Bool("upload", false, "upload outputs to object storage")
	bucket := flag.String("bucket", "wiktwords", "storage bucket for uploads")
	flag.Parse()

	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal(err)
	}
	logPath := filepath.Join("logs", "wiktwords.log")
	logfile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(logfile, "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)
	logger.Printf("wiktwords starting up")

	client := &http.Client{}

	switch {
	case *listLanguages:
		langs, err := ListWiktionaryDumpLanguages(client, *dumpIndex)
		if err != nil {
			logger.Printf("listing languages failed: %v", err)
			log.Fatal(err)
		}
		for _, code := range langs {
			fmt.Printf("%s\t%s\n", code.WiktionaryAbbreviation(), code.EnglishName())
		}

	case *download != "":
		path, err := downloadLanguage(ctx, client, *dumpBase, *download, *dumpDir)
		if err != nil {
			logger.Printf("download failed: %v", err)
			log.Fatal(err)
		}
		fmt.Println(path)

	case *input != "":
		cfg := extractConfig{
			input:      *input,
			output:     *output,
			pretty:     *pretty,
			words:      *wordsPath,
			sorted:     *sortedPath,
			stats:      *statsPath,
			errorLog:   *errorLog,
			upload:     *upload,
			storageKey: *storageKey,
			bucket:     *bucket,
		}
		if err := runExtraction(ctx, cfg); err != nil {
			logger.Printf("extraction failed: %v", err)
			log.Fatal(err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}

	logger.Printf("wiktwords exiting")
}

func downloadLanguage(ctx context.Context, client *http.Client, baseURL, language, dumpDir string) (string, error) {
	lang, err := LanguageFromAbbreviation(language)
	if err != nil {
		lang, err = LanguageFromEnglishName(language)
	}
	if err != nil {
		return "", fmt.Errorf("unknown language %q; want an English name or a wiktionary abbreviation", language)
	}

	date, filename, file, err := LatestCompleteDump(client, baseURL, lang)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dumpDir, date, filename)
	url := ResolveDumpFileURL(baseURL, file)
	if err := DownloadDumpFile(ctx, client, url, dest, file.Size, file.SHA1); err != nil {
		return "", err
	}
	return dest, nil
}

type extractConfig struct {
	input      string
	output     string
	pretty     bool
	words      string
	sorted     string
	stats      string
	errorLog   string
	upload     bool
	storageKey string
	bucket     string
}

func runExtraction(ctx context.Context, cfg extractConfig) error {
	wordList, err := newWordListWriter(cfg.words)
	if err != nil {
		return err
	}
	defer wordList.Close()

	stats := NewWordStats()
	consumer := func(w Word) error {
		stats.Add(w)
		return wordList.Write(w)
	}

	opts := &ExtractOptions{
		InputFile:    cfg.input,
		OutputFile:   cfg.output,
		OutputPretty: cfg.pretty,
		WordConsumer: consumer,
		ErrorLogFile: cfg.errorLog,
	}
	if err := ExtractWordsFromDump(opts); err != nil {
		return err
	}
	if err := wordList.Close(); err != nil {
		return err
	}

	if cfg.stats != "" {
		if err := stats.Write(cfg.stats); err != nil {
			return err
		}
	}
	if cfg.sorted != "" {
		if err := BuildSortedWords(ctx, cfg.words, cfg.sorted); err != nil {
			return err
		}
	}

	if cfg.upload {
		storage, err := openStorage(cfg.storageKey)
		if err != nil {
			return err
		}
		exists, err := storage.BucketExists(ctx, cfg.bucket)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("storage bucket %q does not exist", cfg.bucket)
		}
		date := time.Now().UTC().Format("20060102")
		return UploadOutputs(ctx, storage, cfg.bucket, date,
			[]string{cfg.words, cfg.sorted, cfg.stats})
	}
	return nil
}

// openStorage connects to S3-compatible object storage. A key file, when
// given, holds a JSON document with the endpoint and credentials; without
// one, the S3_ENDPOINT, S3_KEY and S3_SECRET environment variables are
// consulted instead.
func openStorage(keypath string) (*minio.Client, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	key := os.Getenv("S3_KEY")
	secret := os.Getenv("S3_SECRET")
	if keypath != "" {
		data, err := os.ReadFile(keypath)
		if err != nil {
			return nil, err
		}
		var keyfile struct{ Endpoint, Key, Secret string }
		if err := json.Unmarshal(data, &keyfile); err != nil {
			return nil, fmt.Errorf("malformed storage key file %s: %w", keypath, err)
		}
		endpoint, key, secret = keyfile.Endpoint, keyfile.Key, keyfile.Secret
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	client.SetAppInfo("Wiktwords", "0.1")
	return client, nil
}

// wordListWriter writes one CSV line per word, zstd-compressed when the
// path ends in ".zst".
type wordListWriter struct {
	file *os.File
	comp io.WriteCloser
	buf  *bufio.Writer
	w    io.Writer
}

func newWordListWriter(path string) (*wordListWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &wordListWriter{file: file}
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		w.comp = zw
		w.w = zw
	} else {
		w.buf = bufio.NewWriter(file)
		w.w = w.buf
	}
	return w, nil
}

func (w *wordListWriter) Write(word Word) error {
	_, err := fmt.Fprintf(w.w, "%s,%s,%s\n",
		word.Word, word.LanguageEnglishName, word.WordType)
	return err
}

func (w *wordListWriter) Close() error {
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
