// © Ben Garrett https://github.com/bengarrett/unzipple

package unzip_test

import (
	zipw "archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/bengarrett/unzipple/internal/out"
	"github.com/bengarrett/unzipple/internal/unzip"
	"github.com/gookit/color"
	"github.com/nalgeon/be"
)

func init() {
	color.Enable = false
}

// zipBytes builds a zip archive in memory from the named contents.
func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	buf := bytes.Buffer{}
	w := zipw.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fw, err := w.Create(n)
		be.Err(t, err, nil)
		_, err = fw.Write(files[n])
		be.Err(t, err, nil)
	}
	be.Err(t, w.Close(), nil)
	return buf.Bytes()
}

func write(t *testing.T, name string, b []byte) {
	t.Helper()
	be.Err(t, os.MkdirAll(filepath.Dir(name), 0o755), nil)
	be.Err(t, os.WriteFile(name, b, 0o644), nil)
}

// testLog returns a quiet logger backed by a file and a reader for the
// log lines it produced.
func testLog(t *testing.T) (*out.Logger, func() []string) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "run.log")
	l := out.NewFile(name)
	l.Quiet = true
	return l, func() []string {
		be.Err(t, l.Close(), nil)
		b, err := os.ReadFile(name)
		be.Err(t, err, nil)
		return strings.Split(strings.TrimSpace(string(b)), "\n")
	}
}

func exists(t *testing.T, name string) bool {
	t.Helper()
	_, err := os.Stat(name)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return err == nil
}

func TestExtractNotFound(t *testing.T) {
	c := unzip.Config{Test: true, Log: out.New()}
	c.Log.Quiet = true
	err := c.Extract(context.Background(), filepath.Join(t.TempDir(), "nowhere"), t.TempDir())
	be.Err(t, err, unzip.ErrPathNotFound)
}

func TestExtractUnsupported(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "notes.txt")
	write(t, name, []byte("plain text"))
	c := unzip.Config{Test: true, Log: out.New()}
	c.Log.Quiet = true
	err := c.Extract(context.Background(), name, filepath.Join(dir, "out"))
	be.Err(t, err, unzip.ErrUnsupported)
}

// A single flat archive as the input round trips to a directory
// holding exactly its files, with no archive in the output.
func TestExtractSingleArchive(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"alpha.txt": []byte("alpha"),
		"beta.txt":  []byte("beta"),
		"gamma.txt": []byte("gamma"),
	}
	name := filepath.Join(dir, "flat.zip")
	write(t, name, zipBytes(t, files))

	l, _ := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	output := filepath.Join(dir, "out")
	err := c.Extract(context.Background(), name, output)
	be.Err(t, err, nil)

	for rel, body := range files {
		b, err := os.ReadFile(filepath.Join(output, rel))
		be.Err(t, err, nil)
		be.Equal(t, b, body)
	}
	entries, err := os.ReadDir(output)
	be.Err(t, err, nil)
	be.Equal(t, len(entries), len(files))
	// the input archive itself is never consumed
	be.True(t, exists(t, name))
	be.Equal(t, c.Extracted(), 1)
	be.Equal(t, c.Skipped(), 0)
}

// A directory holding an archive within an archive decompresses to the
// full chain of content, with every consumed archive absent from the
// output and the input left untouched.
func TestExtractNestedDirectory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data")

	inner := zipBytes(t, map[string][]byte{"d.txt": []byte("treasure")})
	outer := zipBytes(t, map[string][]byte{"c.zip": inner})
	write(t, filepath.Join(input, "a", "b.zip"), outer)
	write(t, filepath.Join(input, "note.txt"), []byte("keep me"))

	l, _ := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	output := filepath.Join(dir, "out")
	err := c.Extract(context.Background(), input, output)
	be.Err(t, err, nil)

	b, err := os.ReadFile(filepath.Join(output, "a", "b", "c", "d.txt"))
	be.Err(t, err, nil)
	be.Equal(t, string(b), "treasure")
	b, err = os.ReadFile(filepath.Join(output, "note.txt"))
	be.Err(t, err, nil)
	be.Equal(t, string(b), "keep me")

	// consumed archives are gone from the output tree
	be.True(t, !exists(t, filepath.Join(output, "a", "b.zip")))
	be.True(t, !exists(t, filepath.Join(output, "a", "b", "c.zip")))
	// the input tree is pristine
	be.True(t, exists(t, filepath.Join(input, "a", "b.zip")))
	be.Equal(t, c.Extracted(), 2)
}

// A corrupt archive is skipped and left in place while its siblings
// are still fully processed, and the log carries a single error.
func TestExtractCorruptIsolation(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data")
	write(t, filepath.Join(input, "good.zip"),
		zipBytes(t, map[string][]byte{"ok.txt": []byte("fine")}))
	write(t, filepath.Join(input, "bad.zip"), []byte("not a zip at all"))

	l, lines := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	output := filepath.Join(dir, "out")
	err := c.Extract(context.Background(), input, output)
	be.Err(t, err, nil)

	b, err := os.ReadFile(filepath.Join(output, "good", "ok.txt"))
	be.Err(t, err, nil)
	be.Equal(t, string(b), "fine")
	be.True(t, !exists(t, filepath.Join(output, "good.zip")))
	be.True(t, exists(t, filepath.Join(output, "bad.zip")))
	be.Equal(t, c.Extracted(), 1)
	be.Equal(t, c.Skipped(), 1)

	errs := 0
	for _, s := range lines() {
		if strings.Contains(s, "[ERROR]") {
			errs++
			be.True(t, strings.Contains(s, "bad.zip"))
		}
	}
	be.Equal(t, errs, 1)
}

// Two archives differing only by extension share one destination, the
// collision is called out and neither is silently lost.
func TestExtractCollision(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data")
	write(t, filepath.Join(input, "a.zip"),
		zipBytes(t, map[string][]byte{"z.txt": []byte("from zip")}))
	write(t, filepath.Join(input, "a.7z"), []byte("junk, opens with an error"))

	l, lines := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	err := c.Extract(context.Background(), input, filepath.Join(dir, "out"))
	be.Err(t, err, nil)

	warned := false
	for _, s := range lines() {
		if strings.Contains(s, "[WARNING]") && strings.Contains(s, "share the destination") {
			warned = true
		}
	}
	be.True(t, warned)
	b, err := os.ReadFile(filepath.Join(dir, "out", "a", "z.txt"))
	be.Err(t, err, nil)
	be.Equal(t, string(b), "from zip")
}

// Deeply nested chains keep resolving until no archive remains.
func TestExtractDeepChain(t *testing.T) {
	const depth = 6
	dir := t.TempDir()
	input := filepath.Join(dir, "data")

	body := zipBytes(t, map[string][]byte{"leaf.txt": []byte("bottom")})
	for i := 0; i < depth; i++ {
		body = zipBytes(t, map[string][]byte{"next.zip": body})
	}
	write(t, filepath.Join(input, "chain.zip"), body)

	l, _ := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	output := filepath.Join(dir, "out")
	err := c.Extract(context.Background(), input, output)
	be.Err(t, err, nil)

	leaf := filepath.Join(output, "chain")
	for i := 0; i < depth; i++ {
		leaf = filepath.Join(leaf, "next")
	}
	b, err := os.ReadFile(filepath.Join(leaf, "leaf.txt"))
	be.Err(t, err, nil)
	be.Equal(t, string(b), "bottom")
	be.Equal(t, c.Extracted(), depth+1)
}

// A chain nested past the depth ceiling is abandoned with an error
// and the unresolved remainder left packed, rather than walking on
// without end.
func TestExtractDepthCeiling(t *testing.T) {
	const wraps = 70 // comfortably past the 64 level ceiling
	dir := t.TempDir()
	input := filepath.Join(dir, "data")

	body := zipBytes(t, map[string][]byte{"leaf.txt": []byte("unreachable")})
	for i := 0; i < wraps; i++ {
		body = zipBytes(t, map[string][]byte{"next.zip": body})
	}
	write(t, filepath.Join(input, "chain.zip"), body)

	l, lines := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	output := filepath.Join(dir, "out")
	err := c.Extract(context.Background(), input, output)
	be.Err(t, err, nil)

	// chain.zip plus the first 64 wrappers resolve, the next branch
	// is given up on
	be.Equal(t, c.Extracted(), 65)
	be.Equal(t, c.Skipped(), 1)

	abandoned := filepath.Join(output, "chain")
	for i := 0; i < 64; i++ {
		abandoned = filepath.Join(abandoned, "next")
	}
	be.True(t, exists(t, filepath.Join(abandoned, "next.zip")))

	errs := 0
	for _, s := range lines() {
		if strings.Contains(s, "[ERROR]") && strings.Contains(s, "levels deep") {
			errs++
		}
	}
	be.Equal(t, errs, 1)
}

func TestExtractCanceled(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data")
	write(t, filepath.Join(input, "a.zip"),
		zipBytes(t, map[string][]byte{"z.txt": []byte("never written")}))

	l, _ := testLog(t)
	c := unzip.Config{Test: true, Log: l}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Extract(ctx, input, filepath.Join(dir, "out"))
	be.Err(t, err, context.Canceled)
}

func TestStatus(t *testing.T) {
	c := unzip.Config{Test: true}
	s := c.Status()
	be.True(t, strings.Contains(s, "Extracted"))
	be.True(t, strings.Contains(s, "0 archives"))
}
