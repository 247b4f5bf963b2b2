// Command npcli evaluates short numeric expressions against array data read
// from stdin and files.
//
// Usage:
//
//	npcli [flags] expr [file ...]
//
// The expression sees stdin data as d (alias data) and each file argument as
// d1, d2, ... (aliases data1, data2, ...). stdin is read only when the
// expression references d or data.
//
// Examples:
//
//	seq 10 | npcli 'd.sum()'
//	npcli 'd1 * d2' a.txt b.txt
//	npcli -m math 'math.sqrt(2)'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"

	"github.com/npcli/npcli"
)

const appName = "npcli"

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	var (
		debug       = fs.Bool("debug", false, "log evaluation steps and dump the parsed tree to stderr")
		inputFormat string
		rawFormat   string
		raw         = fs.Bool("raw", false, "write the stringified result as-is")
		repr        = fs.Bool("repr", false, "write the debug representation of the result")
		interactive = fs.Bool("interactive", false, "start an interactive session")
		version     = fs.Bool("version", false, "print the version and exit")
		mods        stringList
	)
	fs.StringVar(&inputFormat, "I", "", "input dtype for raw binary data (e.g. float64, i4)")
	fs.StringVar(&inputFormat, "input-format", "", "input dtype for raw binary data")
	fs.StringVar(&rawFormat, "R", "", "output dtype; write the result as raw bytes")
	fs.StringVar(&rawFormat, "raw-format", "", "output dtype; write the result as raw bytes")
	fs.Var(&mods, "m", "helper module to import (repeatable)")
	fs.Var(&mods, "module", "helper module to import (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Println(npcli.Version())
		return 0
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interactive {
		return runREPL(ctx, logger, mods, *debug)
	}

	if fs.NArg() < 1 {
		usage(fs)
		return 2
	}
	expr := fs.Arg(0)
	files := fs.Args()[1:]

	exclusive := 0
	mode := npcli.OutputText
	if *raw {
		exclusive++
		mode = npcli.OutputRaw
	}
	if rawFormat != "" {
		exclusive++
		mode = npcli.OutputRawFormat
	}
	if *repr {
		exclusive++
		mode = npcli.OutputRepr
	}
	if exclusive > 1 {
		fmt.Fprintf(os.Stderr, "%s: --raw, --raw-format and --repr are mutually exclusive\n", appName)
		return 2
	}

	if *debug {
		prog, err := npcli.Compile(expr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		spew.Fdump(os.Stderr, prog.AST())
	}

	opts := npcli.Options{
		Expr:        expr,
		DataSources: files,
		InputFormat: inputFormat,
		OutputMode:  mode,
		RawFormat:   rawFormat,
		Modules:     mods,
		Debug:       *debug,
		Logger:      logger,
	}

	if err := npcli.Run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), `%s %s

Usage:
  %s [flags] expr [file ...]

Evaluates expr against array data. stdin is bound to d (alias data) and is
read only when expr references it; each file argument is bound to d1, d2, ...
(aliases data1, data2, ...).

Flags:
`, appName, npcli.Version(), appName)
	fs.PrintDefaults()
}
