// Package archive compresses per-session artifact files with zstd.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Compress compresses path into path.zst and removes the original.
// Returns the archive path.
func Compress(path string) (string, error) {
	destPath := path + ".zst"

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer dest.Close()

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compress: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize compression: %w", err)
	}

	src.Close()
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove original: %w", err)
	}

	return destPath, nil
}

// Decompress decompresses archivePath to a temp file.
// Returns the temp file path and a cleanup function the caller must defer.
func Decompress(archivePath string) (string, func(), error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return "", nil, fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return "", nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	tmp, err := os.CreateTemp("", "intentgen-decompress-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, decoder); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("decompress: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

// CompressDir compresses every raw_events.csv under the output directory's
// session subdirectories. Already-compressed sessions are skipped.
func CompressDir(outDir string) (int, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	compressed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rawPath := filepath.Join(outDir, entry.Name(), "raw_events.csv")
		if _, err := os.Stat(rawPath); err != nil {
			continue
		}
		if _, err := Compress(rawPath); err != nil {
			return compressed, fmt.Errorf("compress %s: %w", rawPath, err)
		}
		compressed++
	}
	return compressed, nil
}

// IsArchive reports whether path looks like a compressed artifact.
func IsArchive(path string) bool {
	return strings.HasSuffix(path, ".zst")
}
