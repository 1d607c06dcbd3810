// Package pdffile places rendered challans under {root}/Challans/{YYYY}/{MM}/ and
// writes them so that a failed render never leaves a partial file behind.
package pdffile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"challanbook/internal/core/barcode"
	"challanbook/pkg/logger"
)

// Dir is the top-level directory under the project root.
const Dir = "Challans"

// MaxSuffixLen caps the descriptive part of the file name.
const MaxSuffixLen = 60

// Suffix joins parts with "_" and reduces the result to [A-Za-z0-9.-_].
// Every run of other characters becomes a single "_"; leading and trailing
// "_" and "." are trimmed, before and after the length cap.
func Suffix(parts ...string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.Join(parts, "_") {
		if isSafe(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	s := strings.Trim(b.String(), "_.")
	if len(s) > MaxSuffixLen {
		s = strings.TrimRight(s[:MaxSuffixLen], "_.")
	}
	return s
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-':
		return true
	}
	return false
}

// RelPath returns Challans/YYYY/MM/CH-YY-NNNNNN[_suffix].pdf with forward slashes.
func RelPath(challanNo int64, date time.Time, suffixParts []string) (string, error) {
	if _, err := barcode.Format(challanNo, 1, date); err != nil {
		return "", err
	}
	name := barcode.DocumentPrefix(challanNo, date)
	if s := Suffix(suffixParts...); s != "" {
		name += "_" + s
	}
	return path.Join(Dir, fmt.Sprintf("%04d", date.Year()), fmt.Sprintf("%02d", int(date.Month())), name+".pdf"), nil
}

// Store resolves relative paths against the project root.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The directory must exist.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute project root.
func (s *Store) Root() string {
	return s.root
}

// Abs maps a relative path to an absolute one. Paths that would leave the
// project root are rejected.
func (s *Store) Abs(relPath string) (string, error) {
	if relPath == "" || path.IsAbs(relPath) || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("invalid relative path %q", relPath)
	}
	abs := filepath.Join(s.root, filepath.FromSlash(path.Clean(relPath)))
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", relPath)
	}
	return abs, nil
}

// Write creates the parent directories and writes the file through a temporary
// file in the same directory, renamed over any existing file once complete.
func (s *Store) Write(ctx context.Context, relPath string, write func(w io.Writer) error) error {
	target, err := s.Abs(relPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".render-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}
	committed = true

	logger.Debug(ctx, "file written", "path", relPath)
	return nil
}

// Remove deletes a file. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, relPath string) error {
	abs, err := s.Abs(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", relPath, err)
	}
	return nil
}
