package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/agilira/orpheus/pkg/orpheus"
)

const version = "1.0.0"

// cli holds what the command handlers share: where they write and the
// exit code of the last failure.
type cli struct {
	ctx      context.Context
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

func newApp(c *cli) *orpheus.App {
	app := orpheus.New("raise").
		SetDescription("Parallel build tool for C and C++ projects").
		SetVersion(version)

	buildCmd := orpheus.NewCommand("build", "Run build targets").
		SetHandler(c.buildCommand).
		AddFlag("targets", "t", "", "Comma-separated list of targets to run").
		AddFlag("file", "f", DefaultScript, "Build script").
		AddFlag("dir", "D", ".", "Working directory").
		AddIntFlag("parallel", "p", 0, "Number of parallel jobs (0 means one per CPU)").
		AddBoolFlag("plain", "", false, "Plain output without colors").
		AddBoolFlag("verbose", "v", false, "Print debug diagnostics").
		AddBoolFlag("abandon", "", false, "Leave running jobs alive when a job fails")

	listCmd := orpheus.NewCommand("list", "List available targets").
		SetHandler(c.listCommand).
		AddFlag("format", "", "table", "Output format (table, json, yaml)").
		AddFlag("file", "f", DefaultScript, "Build script").
		AddFlag("dir", "D", ".", "Working directory")

	validateCmd := orpheus.NewCommand("validate", "Validate the build script").
		SetHandler(c.validateCommand).
		AddFlag("file", "f", DefaultScript, "Build script").
		AddFlag("dir", "D", ".", "Working directory")

	app.AddCommand(buildCmd)
	app.AddCommand(listCmd)
	app.AddCommand(validateCmd)
	return app
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func splitTargets(s string) []string {
	var targets []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

func (c *cli) buildCommand(ctx *orpheus.Context) error {
	opts := BuildOptions{
		Script:  ctx.GetFlagString("file"),
		Dir:     ctx.GetFlagString("dir"),
		Jobs:    ctx.GetFlagInt("parallel"),
		Abandon: ctx.GetFlagBool("abandon"),
	}
	term := NewTerminal(c.stdout, !ctx.GetFlagBool("plain"))
	log := newLogger(c.stderr, ctx.GetFlagBool("verbose"))

	targets := splitTargets(ctx.GetFlagString("targets"))
	if len(targets) == 0 {
		cfg, err := loadScript(opts, log)
		if err != nil {
			return c.fail(term, "build", err)
		}
		return listTargets(c.stdout, cfg, "table")
	}

	if err := runBuild(c.ctx, opts, term, log, targets); err != nil {
		return c.fail(term, "build", err)
	}
	return nil
}

func (c *cli) listCommand(ctx *orpheus.Context) error {
	opts := BuildOptions{
		Script: ctx.GetFlagString("file"),
		Dir:    ctx.GetFlagString("dir"),
	}
	term := NewTerminal(c.stdout, false)
	cfg, err := loadScript(opts, newLogger(c.stderr, false))
	if err == nil {
		err = listTargets(c.stdout, cfg, ctx.GetFlagString("format"))
	}
	if err != nil {
		return c.fail(term, "list", err)
	}
	return nil
}

func (c *cli) validateCommand(ctx *orpheus.Context) error {
	opts := BuildOptions{
		Script: ctx.GetFlagString("file"),
		Dir:    ctx.GetFlagString("dir"),
	}
	term := NewTerminal(c.stdout, false)
	cfg, err := loadScript(opts, newLogger(c.stderr, false))
	if err != nil {
		return c.fail(term, "validate", err)
	}
	fmt.Fprintf(c.stdout, "%s is valid: %d targets\n", scriptPath(opts.Dir, opts.Script), len(cfg.Targets))
	return nil
}

// fail prints the fatal diagnostic, records the exit code and turns err
// into an orpheus error for the command.
func (c *cli) fail(term *Terminal, cmd string, err error) error {
	fatal, ok := asFatal(err)
	if !ok {
		c.exitCode = 1
		term.Exit(err.Error())
		return orpheus.ExecutionError(cmd, err.Error())
	}

	// command output was already shown by the reporter
	if fatal.Output != "" && fatal.Kind != COMMAND_FAILURE {
		term.Print(fatal.Output)
	}
	term.Exit(fatal.Message)
	c.exitCode = fatal.ExitCode()

	if fatal.Kind == TARGET_NOT_FOUND || fatal.Kind == FILE_NOT_FOUND {
		return orpheus.NotFoundError(cmd, fatal.Message)
	}
	return orpheus.ExecutionError(cmd, fatal.Message)
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{ctx: ctx, stdout: stdout, stderr: stderr}
	if err := newApp(c).Run(args); err != nil {
		if c.exitCode == 0 {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	return c.exitCode
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
