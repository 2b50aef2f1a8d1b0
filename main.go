// © Ben Garrett https://github.com/bengarrett/unzipple

// Unzipple recursively extracts every nested archive within a
// directory tree into a fully decompressed mirror of the tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/bengarrett/unzipple/internal/out"
	"github.com/bengarrett/unzipple/internal/unzip"
	"github.com/gookit/color"
)

var (
	version = "0.0.0"
	commit  = "unset" // nolint: gochecknoglobals
	date    = "unset" // nolint: gochecknoglobals
)

var ErrNoArgs = errors.New("request is missing arguments")

const (
	minArgs = 2 // input and output paths
	maxArgs = 3 // plus the optional log file
)

func main() {
	c := unzip.Config{}
	quiet := flag.Bool("quiet", false, "quiet mode hides all but warnings and errors")
	q := flag.Bool("q", false, "alias for quiet")
	mono := flag.Bool("mono", false, "monochrome mode to remove all color output")
	m := flag.Bool("m", false, "alias for mono")
	ver := flag.Bool("version", false, "version and information for this program")
	v := flag.Bool("v", false, "alias for version")
	// hidden flag
	debug := flag.Bool("debug", false, "debug mode")
	flag.Usage = func() {
		fmt.Print(help())
	}
	flag.Parse()
	if *m || *mono {
		color.Enable = false
	}
	if s := opts(ver, v); s != "" {
		fmt.Print(s)
		os.Exit(0)
	}
	if *q || *quiet {
		c.Quiet = true
	}
	if *debug {
		c.Debug = true
	}
	run(&c, flag.Args()...)
}

// run parses the positional arguments and starts the extraction.
func run(c *unzip.Config, args ...string) {
	if l := len(args); l < minArgs || l > maxArgs {
		if l == 0 {
			fmt.Print(help())
		}
		usageErr(l)
	}
	logPath := ""
	if len(args) == maxArgs {
		logPath = args[2]
	}
	l := out.NewFile(logPath)
	defer l.Close()
	l.Quiet = c.Quiet
	c.Log = l

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l.Infof("Tool is starting...")
	if err := c.Extract(ctx, args[0], args[1]); err != nil {
		// the engine already reported the cause to the log
		l.Close()
		out.ErrFatal(nil)
	}
	l.Infof("Tool has completed")
	if !c.Quiet {
		fmt.Print(c.Status())
	}
}

// usageErr reports malformed positional arguments and exits.
func usageErr(l int) {
	color.Warn.Printf("The %s, expected %d or %d paths but %d were given.\n", ErrNoArgs, minArgs, maxArgs, l)
	fmt.Println("\nThe input path is a directory to scan or a single archive to extract.")
	fmt.Println("The output path is a directory that will hold the decompressed results.")
	out.Example("\nunzipple <input path> <output path> [log file]")
	out.ErrFatal(nil)
}

// opts is a convenience for when a help or version flag is passed as
// an argument.
func opts(ver, v *bool) string {
	for _, arg := range flag.Args() {
		switch strings.ToLower(arg) {
		case "-h", "-help", "--help":
			return help()
		case "-v", "-version", "--version":
			return vers()
		}
	}
	if *ver || *v {
		return vers()
	}
	// no arguments at all is a usage error, not a help request
	return ""
}
