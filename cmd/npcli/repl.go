package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"

	"github.com/npcli/npcli"
	"github.com/npcli/npcli/pkg/cache"
	"github.com/npcli/npcli/pkg/evaluator"
	"github.com/npcli/npcli/pkg/modules"
	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/parser"
	"github.com/npcli/npcli/pkg/types"
)

const (
	historyFile = ".npcli_history"
	prompt      = ">>> "
)

var banner = fmt.Sprintf("npcli %s interactive session\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", npcli.Version())

const helpText = `Commands:
  :ast expr   Dump the parsed tree of expr
  :help       Show this help
  :quit       Exit the session

Assignments persist across inputs.`

// runREPL drives the interactive session: one persistent evaluation context
// shared across inputs, with parsed programs cached by source text.
func runREPL(ctx context.Context, logger *slog.Logger, mods []string, debug bool) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	bindings := make(map[string]interface{})
	for _, name := range mods {
		mod, closer, err := modules.Lookup(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		defer closer()
		bindings[mod.Name] = mod
	}
	bindings["np"] = evaluator.NumPy()

	evalCtx := evaluator.NewContext(bindings)
	ev := evaluator.New(
		evaluator.WithLogger(logger),
		evaluator.WithDebug(debug),
	)
	programs := cache.New(256)

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(input, ":") {
			if done := replCommand(input, programs); done {
				return 0
			}
			continue
		}

		prog, err := programs.GetOrParse(input, func() (*types.Program, error) {
			return parser.Parse(input)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}

		result, err := ev.EvalInteractive(ctx, prog, evalCtx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		if result != nil {
			fmt.Println(formatValue(result))
		}
	}
}

// replCommand handles :-prefixed session commands. Returns true to exit.
func replCommand(input string, programs *cache.Cache) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	switch cmd {
	case ":quit":
		return true
	case ":help":
		fmt.Println(helpText)
	case ":ast":
		if strings.TrimSpace(rest) == "" {
			fmt.Println("usage: :ast expr")
			return false
		}
		prog, err := programs.GetOrParse(rest, func() (*types.Program, error) {
			return parser.Parse(rest)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return false
		}
		spew.Dump(prog.AST())
	default:
		fmt.Println("unknown command. Type :help for commands, :quit to exit.")
	}
	return false
}

// formatValue renders a result for interactive display.
func formatValue(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		if n {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(n)
	case *ndarray.Array:
		return n.Repr()
	case []interface{}:
		parts := make([]string, len(n))
		for i, it := range n {
			parts[i] = formatValue(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
