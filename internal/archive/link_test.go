// © Ben Garrett https://github.com/bengarrett/unzipple

package archive

import (
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestEntryName(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string // "" means rejected
	}{
		{"plain", "a.txt", "a.txt"},
		{"nested", "docs/guide.md", filepath.Join("docs", "guide.md")},
		{"dot prefix", "./a.txt", "a.txt"},
		{"redundant", "docs//guide.md", filepath.Join("docs", "guide.md")},
		{"parent", "../evil.txt", ""},
		{"parent only", "..", ""},
		{"climbs out", "a/../../evil.txt", ""},
		{"absolute", "/etc/passwd", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entryName(tt.entry)
			if tt.want == "" {
				be.Err(t, err, ErrEscape)
				return
			}
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestCheckLink(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		target string
		ok     bool
	}{
		{"sibling", "alias", "data.txt", true},
		{"subdirectory", "alias", "sub/data.txt", true},
		{"up within", filepath.Join("dir", "alias"), "../data.txt", true},
		{"cleans inside", "alias", "sub/../data.txt", true},
		{"empty", "alias", "", false},
		{"absolute", "alias", "/etc/passwd", false},
		{"parent", "alias", "../data.txt", false},
		{"climbs out", filepath.Join("dir", "alias"), "../../data.txt", false},
		{"sneaks out", "alias", "sub/../../data.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLink(tt.link, tt.target)
			if tt.ok {
				be.Err(t, err, nil)
				return
			}
			be.Err(t, err, ErrEscape)
		})
	}
}
