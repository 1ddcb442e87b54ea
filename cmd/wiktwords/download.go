// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DownloadDumpFile streams url to destPath, logging progress and an ETA
// roughly every ten seconds. The declared size and SHA-1 checksum from the
// dump status file are verified; a mismatch fails the download. Output
// goes to a temp file next to the final location and is renamed only after
// verification, so crashes never leave a truncated file under the final
// name.
func DownloadDumpFile(ctx context.Context, client *http.Client, url, destPath string, expectedSize int64, expectedSHA1 string) error {
	logger.Printf("downloading %s to %s", url, destPath)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("failed to fetch %s; StatusCode=%d", url, resp.StatusCode)
	}

	if resp.ContentLength < 0 {
		logger.Printf("missing content length header for %s", url)
	} else if expectedSize > 0 && resp.ContentLength != expectedSize {
		return fmt.Errorf("content length mismatch: status file declares %d, server declares %d",
			expectedSize, resp.ContentLength)
	}

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer tmpFile.Close()
	defer os.Remove(tmpPath)

	var received atomic.Int64
	hash := sha1.New()
	done := make(chan struct{})
	g, subCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		w := io.MultiWriter(tmpFile, hash, &atomicCountingWriter{n: &received})
		_, err := io.Copy(w, resp.Body)
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-subCtx.Done():
				return subCtx.Err()
			case <-ticker.C:
				logDownloadProgress(received.Load(), expectedSize, start)
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if expectedSize > 0 && received.Load() != expectedSize {
		return fmt.Errorf("content length mismatch: status file declares %d, but we received %d",
			expectedSize, received.Load())
	}
	if expectedSHA1 != "" {
		sum := hex.EncodeToString(hash.Sum(nil))
		if sum != expectedSHA1 {
			return fmt.Errorf("sha1 mismatch for %s: status file declares %s, downloaded data has %s",
				url, expectedSHA1, sum)
		}
	}

	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}

	logger.Printf("downloaded %s (%d MiB) in %.1fs",
		destPath, received.Load()/(1<<20), time.Since(start).Seconds())
	return nil
}

type atomicCountingWriter struct {
	n *atomic.Int64
}

func (w *atomicCountingWriter) Write(p []byte) (int, error) {
	w.n.Add(int64(len(p)))
	return len(p), nil
}

func logDownloadProgress(received, expected int64, start time.Time) {
	if expected <= 0 {
		logger.Printf("downloaded %dMiB so far", received/(1<<20))
		return
	}
	fraction := float64(received) / float64(expected)
	eta := "-"
	if fraction > 0 {
		remaining := time.Duration(float64(time.Since(start)) * (1 - fraction) / fraction)
		eta = formatETA(remaining)
	}
	logger.Printf("%.1f%% %dMiB/%dMiB ETA %s",
		fraction*100, received/(1<<20), expected/(1<<20), eta)
}

func formatETA(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	seconds := int64(d.Round(time.Second).Seconds())
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	days, hours := hours/24, hours%24
	switch {
	case days > 9999:
		return ">9999d"
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
