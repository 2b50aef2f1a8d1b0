// © Ben Garrett https://github.com/bengarrett/unzipple

// Package unzip recursively extracts the archives nested within a
// directory tree into a fully decompressed mirror of that tree.
package unzip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/bengarrett/unzipple/internal/archive"
	"github.com/bengarrett/unzipple/internal/out"
	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/karrick/godirwalk"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	ErrPathNotFound = errors.New("the input path does not exist")
	ErrUnsupported  = errors.New("the input path is not a directory or a supported archive")
)

const (
	winOS = "windows"

	// maxDepth bounds archive nesting so a self extracting, quined
	// archive chain cannot walk forever.
	maxDepth = 64
)

// Config options and the running tally of an extraction.
type Config struct {
	Debug bool        // Debug spams technobabble to stdout.
	Quiet bool        // Quiet the feedback sent to stdout.
	Test  bool        // Test toggles the internal unit test mode.
	Log   *out.Logger // Log receives every outcome of the run.

	timer     time.Time
	extracted int   // archives extracted and consumed
	skipped   int   // archives left in place after a failure
	written   int64 // bytes written to the output tree
}

// DPrint prints the string to stdout whenever Config.Debug is true.
func (c *Config) DPrint(s string) {
	if !c.Debug {
		return
	}
	fmt.Fprintf(os.Stdout, "∙%s\n", s)
}

// SetTimer starts a process timer.
func (c *Config) SetTimer() {
	c.timer = time.Now()
}

// Timer returns the time taken since the process timer was instigated.
func (c *Config) Timer() time.Duration {
	return time.Since(c.timer)
}

// Extract mirrors the input directory to the output directory and
// consumes every nested archive found at any depth, or, when the input
// is itself an archive, extracts it directly into the output directory
// before resolving what it contained.
//
// Failures on an individual archive are logged and the file is left in
// place, only a missing or unsupported input and a broken destination
// abort the run.
func (c *Config) Extract(ctx context.Context, input, output string) error {
	if c.Log == nil {
		c.Log = out.New()
		c.Log.Quiet = c.Quiet
	}
	c.SetTimer()
	stat, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrPathNotFound, input)
		}
		c.Log.Errorf("%s", err)
		return err
	}
	switch {
	case stat.IsDir():
		c.DPrint("mirror the input tree: " + input)
		c.Log.Infof("Copying %s to %s", input, output)
		if err := copyTree(input, output); err != nil {
			err = fmt.Errorf("cannot copy the input tree to %s: %w", output, err)
			c.Log.Errorf("%s", err)
			return err
		}
		return c.walk(ctx, input, output, 0)
	case stat.Mode().IsRegular() && archive.Match(input) != nil:
		c.DPrint("extract the single archive: " + input)
		if err := os.MkdirAll(output, 0o755); err != nil {
			err = fmt.Errorf("cannot create the output directory: %w", err)
			c.Log.Errorf("%s", err)
			return err
		}
		if err := c.extractTop(ctx, input, output); err != nil {
			c.Log.Errorf("%s", err)
			return err
		}
		return c.walk(ctx, output, output, 0)
	default:
		err := fmt.Errorf("%w: %s", ErrUnsupported, input)
		c.Log.Errorf("%s", err)
		return err
	}
}

// extractTop unpacks the archive given as the top level input. Unlike
// nested archives its failure is fatal and the file is never deleted,
// it lives outside the output tree.
func (c *Config) extractTop(ctx context.Context, name, dest string) error {
	f := archive.Match(name)
	r, err := f.Open(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()
	n, err := r.ExtractAll(ctx, dest)
	c.written += n
	if err != nil {
		return err
	}
	c.extracted++
	c.Log.Infof("Extracted %s to %s", name, dest)
	return nil
}

// walk scans every file below root and consumes each recognized
// archive. Content is read from root while the extracted output and
// the deletion of consumed archives happen under destRoot, the two
// coincide for every nested level.
func (c *Config) walk(ctx context.Context, root, destRoot string, depth int) error {
	if depth > maxDepth {
		c.skipped++
		c.Log.Errorf("Archives are nested more than %d levels deep, leaving this branch as is: %s", maxDepth, root)
		return nil
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		err = fmt.Errorf("cannot create the destination directory: %w", err)
		c.Log.Errorf("%s", err)
		return err
	}
	names, err := c.scan(root)
	if err != nil {
		err = fmt.Errorf("cannot scan %s: %w", root, err)
		c.Log.Errorf("%s", err)
		return err
	}
	targets := make(map[string]string, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			c.Log.Warnf("The run was canceled, the remaining archives were left in place")
			return err
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			c.skipped++
			c.Log.Errorf("Skipping %s: %s", name, err)
			continue
		}
		target := filepath.Join(destRoot, archive.Trim(rel))
		if prev, ok := targets[target]; ok {
			c.Log.Warnf("Archives %s and %s share the destination %s, their contents will merge", prev, name, target)
		}
		targets[target] = name
		if err := c.consume(ctx, name, target, filepath.Join(destRoot, rel), depth); err != nil {
			return err
		}
	}
	return nil
}

// consume extracts one archive into its target directory, resolves
// whatever archives the extraction produced, then deletes the consumed
// archive from the output tree. Open and extract failures are logged
// and skipped so the rest of the walk carries on.
func (c *Config) consume(ctx context.Context, name, target, remove string, depth int) error {
	c.DPrint("archive: " + name)
	f := archive.Match(name)
	r, err := f.Open(ctx, name)
	if err != nil {
		c.skipped++
		c.Log.Errorf("Skipping, %s", err)
		return nil
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		r.Close()
		c.skipped++
		c.Log.Errorf("Skipping %s, cannot create %s: %s", name, target, err)
		return nil
	}
	n, err := r.ExtractAll(ctx, target)
	r.Close()
	c.written += n
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.Log.Warnf("The run was canceled while extracting %s, partial output may remain in %s", name, target)
			return ctxErr
		}
		c.skipped++
		if errors.Is(err, syscall.ENAMETOOLONG) {
			c.Log.Errorf("Skipping, %s, the destination exceeds the path length limit of this system,"+
				" the archive was left in place for manual extraction", err)
			return nil
		}
		c.Log.Errorf("Skipping, %s", err)
		return nil
	}
	c.extracted++
	c.Log.Infof("Extracted %s to %s", name, target)
	if err := c.walk(ctx, target, target, depth+1); err != nil {
		return err
	}
	c.remove(remove)
	return nil
}

// remove deletes a consumed archive from the output tree. The delete
// is idempotent, a file that is already gone is not a failure and any
// other problem is only worth a warning.
func (c *Config) remove(name string) {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.Log.Warnf("The consumed archive could not be removed: %s", err)
	}
}

// scan returns the path of every archive file below root, at every
// depth, in lexical order. Unreadable directories are skipped with a
// warning rather than aborting the walk.
func (c *Config) scan(root string) ([]string, error) {
	names := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsRegular() {
				return nil
			}
			if archive.Match(path) != nil {
				names = append(names, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			c.Log.Warnf("Skipping an unreadable path %s: %s", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Status summarizes the completed run for the terminal.
func (c *Config) Status() string {
	p, s := message.NewPrinter(language.English), "\r"
	s += color.Secondary.Sprint("Extracted ") +
		color.Primary.Sprintf("%s archives", p.Sprint(number.Decimal(c.extracted))) +
		color.Secondary.Sprint(" totaling ") +
		color.Primary.Sprint(humanize.Bytes(uint64(c.written)))
	if c.skipped > 0 {
		s += color.Secondary.Sprint(", left in place ") +
			color.Danger.Sprintf("%s", p.Sprint(number.Decimal(c.skipped)))
	}
	if !c.Test {
		t := c.Timer().Truncate(time.Millisecond)
		s += color.Secondary.Sprint(", taking ") +
			color.Primary.Sprintf("%v", t)
	}
	if runtime.GOOS != winOS {
		s += "\n"
	}
	return s
}

// Extracted returns the number of archives consumed by the run.
func (c *Config) Extracted() int {
	return c.extracted
}

// Skipped returns the number of archives left in place by the run.
func (c *Config) Skipped() int {
	return c.skipped
}
