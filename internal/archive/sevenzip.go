// © Ben Garrett https://github.com/bengarrett/unzipple

package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// SevenZip is the 7-Zip archive format.
type SevenZip struct{}

// Match reports whether the file claims the .7z extension.
func (SevenZip) Match(name string) bool {
	return matchExt(name, ".7z")
}

// Open the named file as a 7-Zip archive, a bad signature or a
// truncated header fails here.
func (SevenZip) Open(_ context.Context, name string) (Reader, error) {
	r, err := sevenzip.OpenReader(filepath.Clean(name))
	if err != nil {
		return nil, openErr(name, err)
	}
	return &sevenZipReader{name: name, rc: r}, nil
}

type sevenZipReader struct {
	name string
	rc   *sevenzip.ReadCloser
}

func (r *sevenZipReader) Close() error {
	return r.rc.Close()
}

// ExtractAll writes every 7-Zip entry below the destination directory.
// Writes go through an os.Root, the same containment the zip format
// gets, so no entry or symbolic link can place data outside it.
func (r *sevenZipReader) ExtractAll(ctx context.Context, dest string) (int64, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, extractErr(r.name, err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return 0, extractErr(r.name, err)
	}
	defer root.Close()
	written := int64(0)
	for _, f := range r.rc.File {
		if err := ctx.Err(); err != nil {
			return written, extractErr(r.name, err)
		}
		n, err := writeSevenZipEntry(root, f)
		written += n
		if err != nil {
			return written, extractErr(r.name, err)
		}
	}
	return written, nil
}

func writeSevenZipEntry(root *os.Root, f *sevenzip.File) (int64, error) {
	name, err := entryName(f.Name)
	if err != nil {
		return 0, err
	}
	fi := f.FileInfo()
	if fi.IsDir() {
		return 0, root.MkdirAll(name, dirMode(fi.Mode()))
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	// 7-Zip stores a symbolic link's target as the entry content
	if fi.Mode()&fs.ModeSymlink != 0 {
		src, err := f.Open()
		if err != nil {
			return 0, err
		}
		b, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return 0, err
		}
		target := string(b)
		if err := checkLink(name, target); err != nil {
			return 0, err
		}
		_ = root.Remove(name)
		return 0, root.Symlink(target, name)
	}
	src, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return writeFile(root, name, fi.Mode().Perm(), src)
}
