// © Ben Garrett https://github.com/bengarrett/unzipple

// Unzipple recursively extracts every nested archive within a
// directory tree into a fully decompressed mirror of the tree.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gookit/color"
)

const (
	tabPadding  = 4
	description = "Unzipple recursively extracts every nested archive into a decompressed mirror of the input."
)

// help, usage and examples.
func help() string {
	b := bytes.Buffer{}
	w := tabwriter.NewWriter(&b, 0, 0, tabPadding, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "%s\n", description)
	fmt.Fprintf(w, "\n%s\n", color.Primary.Sprint("Extract:"))
	fmt.Fprintln(w, "  The input path is either a directory to scan or a single .zip or .7z archive.")
	fmt.Fprintln(w, "  Directories are first copied to the output path, then every archive found at")
	fmt.Fprintln(w, "  any depth is decompressed in place of itself, including archives within archives.")
	fmt.Fprintln(w, "  Corrupt or unreadable archives are skipped and kept for manual handling.")
	fmt.Fprintln(w, "\n  Usage:")
	fmt.Fprintln(w, "    unzipple [options] <input path> <output path> [log file]")
	fmt.Fprintln(w, "\n  Options:")
	f := *flag.Lookup("quiet")
	fmt.Fprintf(w, "    -%v, -%v\t\t%v\n", f.Name[:1], f.Name, f.Usage)
	f = *flag.Lookup("mono")
	fmt.Fprintf(w, "    -%v, -%v\t\t%v\n", f.Name[:1], f.Name, f.Usage)
	f = *flag.Lookup("version")
	fmt.Fprintf(w, "    -%v, -%v\t\t%v\n", f.Name[:1], f.Name, f.Usage)
	fmt.Fprintf(w, "    -h, -help\t\tshow this list of options\n")
	example(w)
	fmt.Fprintln(w)
	return b.String()
}

// example creates the command examples.
func example(w *tabwriter.Writer) *tabwriter.Writer {
	fmt.Fprintln(w, "\n  Examples:")
	fmt.Fprint(w, color.Secondary.Sprint("    # decompress every archive within the Downloads directory\n"))
	fmt.Fprintf(w, "    %s\n", color.Info.Sprintf("unzipple '%s' '%s'", home()+"/Downloads", home()+"/Downloads-extracted"))
	fmt.Fprint(w, color.Secondary.Sprint("    # extract a single archive and keep a log of the run\n"))
	fmt.Fprintf(w, "    %s", color.Info.Sprint("unzipple archive.zip ./archive unzipple.log"))
	fmt.Fprintln(w)
	return w
}

// vers prints out the program information and version.
func vers() string {
	const copyright, year = "©", 2024
	exe, err := self()
	if err != nil {
		color.Warn.Printf("%s\n", err)
	}
	bld, rev := date, commit
	if rev == "unset" {
		rev = versioninfo.Revision
	}
	if bld == "unset" && !versioninfo.LastCommit.IsZero() {
		bld = versioninfo.LastCommit.Format("2006-01-02")
	}
	w := new(bytes.Buffer)
	fmt.Fprintf(w, "unzipple v%s\n", version)
	fmt.Fprintf(w, "%s %d Ben Garrett\n", copyright, year)
	fmt.Fprintf(w, "%s\n\n", color.Primary.Sprint("https://github.com/bengarrett/unzipple"))
	fmt.Fprintf(w, "  %s    %s (%s)\n", color.Secondary.Sprint("build:"), rev, bld)
	fmt.Fprintf(w, "  %s %s/%s\n", color.Secondary.Sprint("platform:"), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  %s       %s\n", color.Secondary.Sprint("go:"), strings.Replace(runtime.Version(), "go", "v", 1))
	fmt.Fprintf(w, "  %s     %s\n", color.Secondary.Sprint("path:"), exe)
	return w.String()
}

// home returns the user's home directory.
// Or if that fails, returns the current working directory.
func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		if h, err = os.Getwd(); err != nil {
			color.Warn.Printf("The %s.\n", err)
		}
	}
	return h
}

// self returns the path to this unzipple executable file.
func self() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("self error: %w", err)
	}
	return exe, nil
}
