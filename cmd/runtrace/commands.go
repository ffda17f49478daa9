package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hellodavidux/runtrace/internal/detail"
	"github.com/hellodavidux/runtrace/internal/diagram"
	"github.com/hellodavidux/runtrace/internal/export"
	"github.com/hellodavidux/runtrace/internal/expressions"
	"github.com/hellodavidux/runtrace/internal/fixture"
	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/logging"
	"github.com/hellodavidux/runtrace/internal/playback"
	"github.com/hellodavidux/runtrace/internal/scheduler"
	"github.com/hellodavidux/runtrace/internal/session"
	"github.com/hellodavidux/runtrace/internal/streaming"
	"github.com/hellodavidux/runtrace/internal/tui"
	"github.com/hellodavidux/runtrace/internal/validation"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// runFlags selects which run variant a command works on.
type runFlags struct {
	runID    string
	newRun   bool
	collapse string
}

func (r *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.runID, "run", "", "run id; empty shows the canonical timings")
	fs.BoolVar(&r.newRun, "new", false, "use a freshly generated run id")
	fs.StringVar(&r.collapse, "collapse", "", "comma-separated group node ids to collapse")
}

func (r *runFlags) resolve() string {
	if r.newRun {
		return session.NewRunID()
	}
	return r.runID
}

func (r *runFlags) collapsed() map[string]bool {
	out := make(map[string]bool)
	for _, id := range strings.Split(r.collapse, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}
	return out
}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	return logging.New(w, cfg.LogLevel, cfg.LogFormat)
}

func loadFixture(cfg Config, logger *slog.Logger) (*schema.Fixture, error) {
	v, err := validation.NewFixtureValidator()
	if err != nil {
		return nil, err
	}
	f, _, err := fixture.NewLoader(v, logger).Load(cfg.Fixture)
	return f, err
}

func newBuilder(f *schema.Fixture) *gantt.Builder {
	return gantt.NewBuilder(f.Nodes, playback.NewSimulator(playback.DefaultAnimationWindow))
}

// staticFrame builds the non-playing timeline of a run.
func staticFrame(f *schema.Fixture, runID string, collapsed map[string]bool) *gantt.Result {
	return newBuilder(f).Build(gantt.Options{
		RunID:     runID,
		Collapsed: collapsed,
		Now:       time.Now(),
	})
}

func title(f *schema.Fixture, runID string) string {
	if f.Workflow == "" {
		return "Run timeline"
	}
	if run, ok := f.Run(runID); ok && run.Created != "" {
		return fmt.Sprintf("%s (%s)", f.Workflow, run.Created)
	}
	return f.Workflow
}

func runShow(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("show", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	fs.IntVar(&cfg.Columns, "columns", cfg.Columns, "width of the bar area")
	asJSON := fs.Bool("json", false, "print the built timeline as json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)
	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()
	logging.LogWith(logging.WithRunID(ctx, runID), logger).Debug("building timeline")
	res := staticFrame(f, runID, rf.collapsed())

	if *asJSON {
		out, err := export.DataJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
		return nil
	}
	fmt.Fprint(stdout, gantt.RenderASCII(title(f, runID), res, cfg.Columns))
	return nil
}

func runExport(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	format := fs.String("format", "csv", "output format: csv or json")
	where := fs.String("where", "", "keep rows matching this expression")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "expression engine for --where: expr, cel or jq")
	outPath := fs.String("out", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "csv" && *format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return errUsage
	}

	logger := newLogger(cfg, stderr)
	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()
	records := export.Records(staticFrame(f, runID, rf.collapsed()))

	if *where != "" {
		engine, err := expressions.NewEngine(cfg.Engine)
		if err != nil {
			return err
		}
		records, err = filterRecords(ctx, engine, *where, records)
		if err != nil {
			return err
		}
	}

	w := stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeIO, "create %s", *outPath).WithCause(err)
		}
		defer file.Close()
		w = file
	}

	logging.LogWith(logging.WithRunID(ctx, runID), logger).Debug("exporting rows",
		slog.String("format", *format), slog.Int("rows", len(records)))
	if *format == "json" {
		return export.RowsJSON(w, records)
	}
	return export.RowsCSV(w, records)
}

func filterRecords(ctx context.Context, engine expressions.Engine, expression string, records []export.Record) ([]export.Record, error) {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = r.Map()
	}
	kept, err := expressions.Filter(ctx, engine, expression, rows)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(kept))
	for _, row := range kept {
		if id, ok := row["id"].(string); ok {
			keep[id] = true
		}
	}
	out := make([]export.Record, 0, len(kept))
	for _, r := range records {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func runDetail(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("detail", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "markdown theme: auto, dark, light or notty")
	query := fs.String("query", "", "jq query over the node detail")
	format := fs.String("format", "markdown", "output format: markdown, json or csv")
	field := fs.String("field", "output", "payload exported by json and csv: input or output")
	width := fs.Int("width", 80, "wrap width for rendered markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: runtrace detail [flags] <node-id>")
		return errUsage
	}
	nodeID := fs.Arg(0)

	logger := newLogger(cfg, stderr)
	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()
	res := staticFrame(f, runID, rf.collapsed())
	row, ok := res.Row(nodeID)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %s is not visible", nodeID).WithNode(nodeID)
	}
	view := detail.FromRow(row)
	ctx = logging.WithNodeID(logging.WithRunID(ctx, runID), nodeID)

	if *query != "" {
		doc, err := view.Document()
		if err != nil {
			return err
		}
		results, err := expressions.NewGoJQEngine().Query(ctx, *query, doc)
		if err != nil {
			return err
		}
		for _, r := range results {
			out, err := export.DataJSON(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, out)
		}
		return nil
	}

	payload := view.Output
	if *field == "input" {
		payload = view.Input
	}
	switch *format {
	case "json":
		out, err := export.DataJSON(payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	case "csv":
		out, err := export.DataCSV(payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	case "markdown":
		out, err := detail.Render(view.Markdown(), detail.Theme(cfg.Theme), *width)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, out)
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return errUsage
	}
	logging.LogWith(ctx, logger).Debug("detail rendered", slog.String("format", *format))
	return nil
}

func runDiagram(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("diagram", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	format := fs.String("format", "mermaid", "output format: mermaid, gantt, png, svg or dot")
	outPath := fs.String("out", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)
	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()
	model := diagram.Build(title(f, runID), staticFrame(f, runID, rf.collapsed()))

	var out []byte
	switch *format {
	case "mermaid":
		out = []byte(diagram.RenderMermaid(model))
	case "gantt":
		out = []byte(diagram.RenderMermaidGantt(model))
	default:
		out, err = diagram.RenderImage(ctx, model, diagram.ImageFormat(*format))
		if err != nil {
			return err
		}
	}

	logging.LogWith(logging.WithRunID(ctx, runID), logger).Debug("diagram rendered",
		slog.String("format", *format), slog.Int("bytes", len(out)))
	if *outPath == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		return schema.NewErrorf(schema.ErrCodeIO, "write %s", *outPath).WithCause(err)
	}
	return nil
}

func runPlay(ctx context.Context, cfg Config, args []string, stderr io.Writer) error {
	fs := newFlagSet("play", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "markdown theme for the detail panel")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log destination while the terminal is in use")
	paused := fs.Bool("paused", false, "open without starting playback")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logOut, closeLog, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := newLogger(cfg, logOut)

	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()
	if runID == "" {
		runID = session.NewRunID()
	}

	hub := streaming.NewMemoryHub()
	sess := session.New(newBuilder(f), hub, session.Config{
		RunID:   runID,
		Compact: true,
		Logger:  logger,
	})
	for id := range rf.collapsed() {
		sess.Toggle(id)
	}

	model, err := tui.New(ctx, tui.Options{
		Session:  sess,
		Hub:      hub,
		Title:    title(f, runID),
		Theme:    detail.Theme(cfg.Theme),
		AutoPlay: !*paused,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func openLogFile(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, schema.NewErrorf(schema.ErrCodeIO, "create log dir for %s", path).WithCause(err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, schema.NewErrorf(schema.ErrCodeIO, "open log file %s", path).WithCause(err)
	}
	return file, func() { _ = file.Close() }, nil
}

func runWatch(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watch", stderr)
	commonFlags(fs, &cfg)
	var rf runFlags
	rf.register(fs)
	interval := fs.Duration("interval", playback.DefaultPollInterval, "frame interval")
	every := fs.String("schedule", "", "cron schedule replaying a fresh run on every tick, e.g. @every 30s")
	count := fs.Int("count", 0, "stop after this many scheduled replays; 0 runs until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)
	f, err := loadFixture(cfg, logger)
	if err != nil {
		return err
	}
	runID := rf.resolve()

	hub := streaming.NewMemoryHub()
	sess := session.New(newBuilder(f), hub, session.Config{
		RunID:    runID,
		Interval: *interval,
		Logger:   logger,
	})
	for id := range rf.collapsed() {
		sess.Toggle(id)
	}
	if *every == "" {
		return watch(ctx, sess, hub, stdout)
	}

	sched := scheduler.New(func(ctx context.Context, runID string) error {
		sess.Restart(runID)
		return watch(ctx, sess, hub, stdout)
	}, scheduler.Config{NewRunID: session.NewRunID, Logger: logger})
	err = sched.Run(ctx, *every, *count)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watch replays the session and prints every status change until the
// playback completes or stops.
func watch(ctx context.Context, sess *session.Session, hub *streaming.MemoryHub, w io.Writer) error {
	events, unsubscribe, err := hub.Subscribe(ctx, streaming.EventFilter{
		EventTypes: []string{
			schema.EventNodeStatusChanged,
			schema.EventPlaybackCompleted,
			schema.EventPlaybackStopped,
		},
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Play(ctx) }()

	label := sess.RunID()
	if label == "" {
		label = "canonical"
	}
	fmt.Fprintf(w, "run %s\n", label)

	var playErr error
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return <-errCh
			}
			if printEvent(w, ev) {
				return <-errCh
			}
		case playErr = <-errCh:
			// Play publishes its final event before returning; flush what
			// is still buffered.
			for {
				select {
				case ev := <-events:
					if printEvent(w, ev) {
						return playErr
					}
				default:
					return playErr
				}
			}
		}
	}
}

// printEvent writes one event line and reports whether it ends the replay.
func printEvent(w io.Writer, ev streaming.StreamEvent) bool {
	switch p := ev.Payload.(type) {
	case session.StatusChange:
		from := string(p.From)
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(w, "  %-14s %-9s -> %s\n", p.Identifier, from, p.To)
	case session.Completion:
		fmt.Fprintf(w, "%s %s %3.0f%%\n", strings.TrimPrefix(ev.EventType, "playback_"), p.Status, p.Progress*100)
		return true
	}
	return false
}

func runRuns(_ context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("runs", stderr)
	commonFlags(fs, &cfg)
	asJSON := fs.Bool("json", false, "print runs as json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := loadFixture(cfg, newLogger(cfg, stderr))
	if err != nil {
		return err
	}
	if *asJSON {
		runs := f.Runs
		if runs == nil {
			runs = []schema.RunSummary{}
		}
		out, err := export.DataJSON(runs)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTATUS\tLATENCY\tTOKENS\tUSER")
	for _, r := range f.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.RunID, r.Created, r.Status, r.Latency, r.Tokens, r.User)
	}
	return tw.Flush()
}

func runValidate(_ context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("validate", stderr)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := cfg.Fixture
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	v, err := validation.NewFixtureValidator()
	if err != nil {
		return err
	}
	// Warnings are printed below; keep the logger quiet.
	loader := fixture.NewLoader(v, logging.New(io.Discard, "error", "text"))
	_, res, err := loader.Load(path)
	if res == nil {
		return err
	}

	name := path
	if name == "" {
		name = "built-in fixture"
	}
	for _, issue := range res.Errors {
		fmt.Fprintln(stdout, issue.String())
	}
	for _, issue := range res.Warnings {
		fmt.Fprintln(stdout, issue.String())
	}
	if err != nil {
		fmt.Fprintf(stdout, "%s: %d error(s), %d warning(s)\n", name, len(res.Errors), len(res.Warnings))
		return err
	}
	fmt.Fprintf(stdout, "%s: ok, %d warning(s)\n", name, len(res.Warnings))
	return nil
}
