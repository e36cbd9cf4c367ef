package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/pkg/jqlite"
	"github.com/spf13/cobra"
)

var (
	runArgs    []string
	runSlurp   bool
	runRaw     bool
	runCompact bool
	runNullIn  bool
	runTrace   bool
	runDumpAST bool
)

var runCmd = &cobra.Command{
	Use:   "run <filter>",
	Short: "Evaluate a filter against JSON input read from stdin",
	Long: `Evaluate a jq-compatible filter expression against a stream of
whitespace-separated JSON documents read from stdin, printing one JSON
(or, with --raw-output, bare-string) value per output.

Examples:
  echo '{"a":1}' | jqlite run '.a'
  jqlite run -n '1,2,3 | . * 2'
  jqlite run --slurp 'add' <numbers.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "bind $name to value, repeatable (--arg name=value)")
	runCmd.Flags().BoolVar(&runSlurp, "slurp", false, "read all stdin documents into a single array before filtering")
	runCmd.Flags().BoolVarP(&runRaw, "raw-output", "r", false, "print string outputs without JSON quoting")
	runCmd.Flags().BoolVarP(&runCompact, "compact-output", "c", false, "print outputs on a single line each")
	runCmd.Flags().BoolVarP(&runNullIn, "null-input", "n", false, "run the filter once against null; stdin is still available to input/inputs")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "print each sub-expression's input to stderr as it evaluates")
	runCmd.Flags().BoolVar(&runDumpAST, "dump-ast", false, "print the parsed filter's AST instead of running it")
}

func runFilter(_ *cobra.Command, args []string) error {
	prog, err := jqlite.Compile(args[0])
	if err != nil {
		return err
	}

	if runDumpAST {
		dumpAST(prog.Expr(), 0)
		return nil
	}

	runner := jqlite.NewRunner()
	for _, kv := range runArgs {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--arg must be name=value, got %q", kv)
		}
		runner.SetVar(name, jqlite.String(val))
	}
	runner.SetDebugSink(func(v jqlite.Value) {
		fmt.Fprintln(os.Stderr, "[debug] "+jqlite.ToJSON(v, ""))
	})
	if runTrace {
		runner.SetTrace(func(expr ast.Expr, input jqlite.Value) {
			fmt.Fprintf(os.Stderr, "[trace] %s <- %s\n", expr, jqlite.ToJSON(input, ""))
		})
	}

	// input/inputs and the main document loop share one cursor, exactly
	// as jq's own driver does: a filter that itself calls `input` steals
	// the next document from the same stream the top-level loop walks.
	// Stdin is read lazily, document by document, so `-n` without
	// `input`/`inputs` in the filter never blocks on an unread stdin.
	nextDoc := stdinDocReader(os.Stdin)
	if runSlurp {
		var all []jqlite.Value
		for {
			v, ok := nextDoc()
			if !ok {
				break
			}
			all = append(all, v)
		}
		slurped := jqlite.Array(all...)
		used := false
		nextDoc = func() (jqlite.Value, bool) {
			if used {
				return jqlite.Null, false
			}
			used = true
			return slurped, true
		}
	}
	runner.SetInputSource(nextDoc)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	runOne := func(in jqlite.Value) error {
		outs, err := runner.Run(prog, in)
		if err != nil {
			if code, msg, ok := jqlite.HaltInfo(err); ok {
				if msg != "" {
					fmt.Fprintln(os.Stderr, msg)
				}
				w.Flush()
				os.Exit(code)
			}
			return err
		}
		for _, out := range outs {
			printOutput(w, out)
		}
		return nil
	}

	if runNullIn {
		return runOne(jqlite.Null)
	}
	for {
		in, ok := nextDoc()
		if !ok {
			return nil
		}
		if err := runOne(in); err != nil {
			return err
		}
	}
}

func printOutput(w io.Writer, v jqlite.Value) {
	if runRaw && jqlite.IsString(v) {
		fmt.Fprintln(w, jqlite.StringOf(v))
		return
	}
	indent := "  "
	if runCompact {
		indent = ""
	}
	fmt.Fprintln(w, jqlite.ToJSON(v, indent))
}

// stdinDocReader returns a puller that decodes one whitespace-separated
// JSON document from r at a time, stopping (with ok=false) at EOF or
// the first malformed document -- malformed input simply ends the
// stream rather than aborting the whole run, matching the driver
// seam's "empty/Null on exhaustion" contract documented in SPEC_FULL.md.
func stdinDocReader(r io.Reader) func() (jqlite.Value, bool) {
	dec := json.NewDecoder(r)
	return func() (jqlite.Value, bool) {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return jqlite.Null, false
		}
		v, err := jqlite.ParseJSON(string(raw))
		if err != nil {
			return jqlite.Null, false
		}
		return v, true
	}
}

func dumpAST(expr ast.Expr, indent int) {
	fmt.Println(strings.Repeat("  ", indent) + fmt.Sprintf("%T: %s", expr, expr))
}
