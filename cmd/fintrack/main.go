// Command fintrack is the command-line front end of the ledger.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/services"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app is the state shared by every subcommand.
type app struct {
	cfg     *config.Config
	svc     *services.LedgerService
	logger  *applog.Logger
	sink    *render.Sink
	loc     *time.Location
	stdout  io.Writer
	stderr  io.Writer
	prompt  cli.Prompter
	confirm cli.Confirmer
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := cli.SetupLogger(stderr, cfg.LogLevel, applog.ComponentApp)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := backend.NewFactory(logger).CreateService(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error())
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err.Error())
		}
	}()

	lp := cli.NewLinePrompt(stdin, stdout)
	a := &app{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		sink:    render.New(stdout, bcfg.Location),
		loc:     bcfg.Location,
		stdout:  stdout,
		stderr:  stderr,
		prompt:  lp,
		confirm: lp,
	}

	if err := cmd.run(a, ctx, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		a.sink.Error(err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: fintrack <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'fintrack <command> -h' for the flags of a command.")
}
