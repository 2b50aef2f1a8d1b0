// © Ben Garrett https://github.com/bengarrett/unzipple

package unzip

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyTree mirrors the src directory to dst, recreating every
// subdirectory, regular file and symbolic link at the same relative
// path. The mirror gives later extractions a destination namespace
// that is distinct from the original input.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(name, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_ = os.Remove(name)
			return os.Symlink(link, name)
		case d.Type().IsRegular():
			return copyFile(path, name)
		}
		// sockets, devices and other irregular files are not mirrored
		return nil
	})
}

// copyFile duplicates the named file with its permission bits.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	r, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
