// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestBuildSortedWords(t *testing.T) {
	logger = log.New(&bytes.Buffer{}, "", log.Lshortfile)
	dir := t.TempDir()

	inPath := filepath.Join(dir, "words.csv")
	input := "zebra,English,Noun\ncat,English,Noun\ncat,English,Noun\ncat,English,Verb\nbank,German,Noun\n"
	if err := os.WriteFile(inPath, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "sorted.csv")
	if err := BuildSortedWords(context.Background(), inPath, outPath); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "bank,German,Noun\ncat,English,Noun\ncat,English,Verb\nzebra,English,Noun\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildSortedWordsZstd(t *testing.T) {
	logger = log.New(&bytes.Buffer{}, "", log.Lshortfile)
	dir := t.TempDir()

	inPath := filepath.Join(dir, "words.csv.zst")
	inFile, err := os.Create(inPath)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(inFile)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write([]byte("b,English,Noun\na,English,Noun\nb,English,Noun\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := inFile.Close(); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "sorted.csv.zst")
	if err := BuildSortedWords(context.Background(), inPath, outPath); err != nil {
		t.Fatal(err)
	}

	outFile, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer outFile.Close()
	zr, err := zstd.NewReader(outFile)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a,English,Noun\nb,English,Noun\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
