package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `runtrace - inspect workflow run timelines

Usage:
  runtrace <command> [flags]

Commands:
  show       print the timeline of a run as a text Gantt chart
  export     write timeline rows as csv or json
  detail     show the input and output of one node
  diagram    render the run as a mermaid flowchart, mermaid gantt or image
  play       open the live terminal view and replay a run
  watch      replay a run headless and print status changes
  runs       list the recorded runs of the fixture
  validate   check a fixture file
  version    print the version

Run "runtrace <command> -h" for command flags.
`

// errUsage marks failures already reported as a usage message.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	cfg := loadConfig()

	var err error
	switch cmd {
	case "show":
		err = runShow(ctx, cfg, rest, stdout, stderr)
	case "export":
		err = runExport(ctx, cfg, rest, stdout, stderr)
	case "detail":
		err = runDetail(ctx, cfg, rest, stdout, stderr)
	case "diagram":
		err = runDiagram(ctx, cfg, rest, stdout, stderr)
	case "play":
		err = runPlay(ctx, cfg, rest, stderr)
	case "watch":
		err = runWatch(ctx, cfg, rest, stdout, stderr)
	case "runs":
		err = runRuns(ctx, cfg, rest, stdout, stderr)
	case "validate":
		err = runValidate(ctx, cfg, rest, stdout, stderr)
	case "version", "-v", "--version":
		printVersion(stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

// commonFlags registers the flags every fixture-reading command accepts.
// Parsed values override the layered config in place.
func commonFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "fixture file (yaml or json); empty uses the built-in fixture")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
