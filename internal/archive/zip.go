// © Ben Garrett https://github.com/bengarrett/unzipple

package archive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

var errNotZip = errors.New("content is not in the zip format")

// Zip is the PKWARE zip archive format.
type Zip struct{}

// Match reports whether the file claims the .zip extension.
func (Zip) Match(name string) bool {
	return matchExt(name, ".zip")
}

// Open the named file and confirm its content really is a zip archive.
// A truncated or corrupt header fails here, not during extraction.
func (Zip) Open(ctx context.Context, name string) (Reader, error) {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return nil, openErr(name, err)
	}
	// identify by stream only, the extension already made the claim
	format, _, err := archives.Identify(ctx, "", f)
	if err != nil {
		f.Close()
		return nil, openErr(name, err)
	}
	z, ok := format.(archives.Zip)
	if !ok {
		f.Close()
		return nil, openErr(name, errNotZip)
	}
	return &zipReader{name: name, f: f, zip: z}, nil
}

type zipReader struct {
	name string
	f    *os.File
	zip  archives.Zip
}

func (r *zipReader) Close() error {
	return r.f.Close()
}

// ExtractAll writes every zip entry below the destination directory.
// All writes go through an os.Root so entries cannot land outside it,
// not even by traversing a symbolic link laid down earlier.
func (r *zipReader) ExtractAll(ctx context.Context, dest string) (int64, error) {
	if _, err := r.f.Seek(0, io.SeekStart); err != nil {
		return 0, extractErr(r.name, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, extractErr(r.name, err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return 0, extractErr(r.name, err)
	}
	defer root.Close()
	written := int64(0)
	err = r.zip.Extract(ctx, r.f, func(ctx context.Context, info archives.FileInfo) error {
		n, err := writeEntry(root, info)
		written += n
		return err
	})
	if err != nil {
		return written, extractErr(r.name, err)
	}
	return written, nil
}

// writeEntry recreates a single archive entry below the root and
// returns the number of content bytes written.
func writeEntry(root *os.Root, info archives.FileInfo) (int64, error) {
	name, err := entryName(info.NameInArchive)
	if err != nil {
		return 0, err
	}
	mode := info.Mode()
	if info.IsDir() {
		return 0, root.MkdirAll(name, dirMode(mode))
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if mode&fs.ModeSymlink != 0 {
		if info.LinkTarget == "" {
			return 0, nil
		}
		if err := checkLink(name, info.LinkTarget); err != nil {
			return 0, err
		}
		// replace a link left behind by an earlier merge
		_ = root.Remove(name)
		return 0, root.Symlink(info.LinkTarget, name)
	}
	src, err := info.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return writeFile(root, name, mode.Perm(), src)
}

// writeFile streams src to the named file with the permission bits.
func writeFile(root *os.Root, name string, perm fs.FileMode, src io.Reader) (int64, error) {
	if perm == 0 {
		perm = 0o644
	}
	dst, err := root.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if err1 := dst.Close(); err == nil {
		err = err1
	}
	return n, err
}

// dirMode returns usable directory permissions, archives authored on
// Windows often store none.
func dirMode(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}
