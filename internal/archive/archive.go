// © Ben Garrett https://github.com/bengarrett/unzipple

// Package archive hides the differences between the supported archive
// formats behind a single open and extract capability set.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

var (
	ErrOpen    = errors.New("file cannot be opened as an archive")
	ErrExtract = errors.New("archive contents cannot be extracted")
	ErrEscape  = errors.New("archive entry path escapes the destination")
)

// Reader is an opened archive ready for extraction.
type Reader interface {
	// ExtractAll decompresses every entry into the destination
	// directory and returns the number of bytes written to disk.
	ExtractAll(ctx context.Context, dest string) (int64, error)
	// Close releases the archive file handle.
	Close() error
}

// Format is a single supported archive format. The extraction engine
// only ever uses this capability set, new formats are added to the
// Formats registry without engine changes.
type Format interface {
	// Match reports whether the named file claims this format.
	// Matching is by file extension only, the content is not read.
	Match(name string) bool
	// Open the named file as an archive of this format.
	Open(ctx context.Context, name string) (Reader, error)
}

// Formats returns the registry of supported archive formats.
func Formats() []Format {
	return []Format{Zip{}, SevenZip{}}
}

// Match returns the first format claiming the named file,
// or nil when the name matches no supported format.
func Match(name string) Format {
	for _, f := range Formats() {
		if f.Match(name) {
			return f
		}
	}
	return nil
}

// Trim returns the name with its archive extension removed,
// names that match no supported format are returned unchanged.
func Trim(name string) string {
	if Match(name) == nil {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// matchExt reports whether the file extension of name equals ext,
// ignoring case.
func matchExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// openErr wraps an open failure with the offending path and, when the
// file content contradicts the claimed extension, the sniffed type.
func openErr(name string, err error) error {
	if mime := sniff(name); mime != "" {
		return fmt.Errorf("%w: %s: content is %s: %w", ErrOpen, name, mime, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrOpen, name, err)
}

// extractErr wraps an extraction failure with the offending path.
func extractErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExtract, name, err)
}

// sniff reads the named file and returns its detected MIME type,
// or an empty string when the content is unrecognized.
func sniff(name string) string {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return ""
	}
	defer f.Close()
	kind, err := filetype.MatchReader(f)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// entryName cleans an archive entry name into a path relative to the
// destination directory and rejects names that resolve outside of it.
func entryName(name string) (string, error) {
	p := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" ||
		p == ".." || strings.HasPrefix(p, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrEscape, name)
	}
	return p, nil
}

// checkLink rejects a symbolic link entry whose target resolves
// outside the destination directory, links must stay relative and
// contained so nothing can later be written through them.
func checkLink(name, target string) error {
	if target == "" || filepath.IsAbs(target) || filepath.VolumeName(target) != "" {
		return fmt.Errorf("%w: %s -> %s", ErrEscape, name, target)
	}
	p := filepath.Join(filepath.Dir(name), filepath.FromSlash(target))
	if p == ".." || strings.HasPrefix(p, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %s -> %s", ErrEscape, name, target)
	}
	return nil
}
