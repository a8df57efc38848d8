package fmu

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"
)

// completeMarker is written last, so a directory without it is a partial
// extraction and is redone.
const completeMarker = ".extracted"

// extract unpacks a zipped model package into a content-addressed directory
// under cacheDir and returns that directory. Identical archives share one
// extraction.
func extract(archive, cacheDir string) (string, error) {
	data, err := os.ReadFile(archive)
	if err != nil {
		return "", fmt.Errorf("reading package: %w", err)
	}
	sum := blake3.Sum256(data)
	base := strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive))
	dir := filepath.Join(cacheDir, base+"-"+hex.EncodeToString(sum[:8]))

	if _, err := os.Stat(filepath.Join(dir, completeMarker)); err == nil {
		return dir, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.MkdirTemp(cacheDir, base+"-partial-")
	if err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := unzip(data, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	if err := os.WriteFile(filepath.Join(tmp, completeMarker), sum[:], 0o644); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("marking extraction complete: %w", err)
	}
	_ = os.RemoveAll(dir)
	if err := os.Rename(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("publishing extraction: %w", err)
	}
	return dir, nil
}

func unzip(data []byte, dest string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("opening package archive: %w", err)
	}
	base := filepath.Clean(dest)
	root := base + string(os.PathSeparator)
	for _, f := range zr.File {
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if target == base {
			// "./" and similar name the extraction root itself.
			continue
		}
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("package entry %q escapes extraction directory", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeEntry(f, target); err != nil {
			return fmt.Errorf("extracting %q: %w", f.Name, err)
		}
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
