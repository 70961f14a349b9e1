package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/smg"
	"github.com/sirupsen/logrus"
)

// ErrInconsistent is returned when a scenario violates a graph invariant.
var ErrInconsistent = errors.New("inconsistent memory graph")

// CheckCommand represents a command for checking a heap scenario.
type CheckCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand() *CheckCommand {
	return &CheckCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the "check" subcommand.
func (cmd *CheckCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("smg-check", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose")
	configPath := fs.String("config", "", "config file")
	fs.SetOutput(cmd.Stderr)
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return fmt.Errorf("scenario required")
	} else if fs.NArg() > 1 {
		return fmt.Errorf("too many scenarios specified")
	}

	config, err := cmd.loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.Out = cmd.Stderr
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	opts, err := config.Options(logger)
	if err != nil {
		return err
	}
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	scenario, err := LoadScenario(fs.Arg(0))
	if err != nil {
		return err
	}
	return cmd.check(scenario, opts)
}

func (cmd *CheckCommand) loadConfig(path string) (*smg.Config, error) {
	if path == "" {
		return smg.DefaultConfig()
	}
	return smg.LoadConfig(path)
}

// check builds the scenario, verifies it, drops the requested frames and
// prints every leaked object.
func (cmd *CheckCommand) check(scenario *Scenario, opts smg.Options) error {
	g, _, err := scenario.Build(opts)
	if err != nil {
		return err
	}
	if !smg.VerifyCLangSMG(g) {
		return ErrInconsistent
	}

	for i := 0; i < scenario.Pop; i++ {
		if g.StackFrameCount() == 0 {
			return fmt.Errorf("cannot pop %d frames: stack has %d", scenario.Pop, i)
		}
		g = g.DropStackFrame()
	}

	g, leaks := g.PruneUnreachable()
	if !smg.VerifyCLangSMG(g) {
		return ErrInconsistent
	}

	for _, obj := range leaks {
		fmt.Fprintf(cmd.Stdout, "leak: %s (%d bits)\n", obj.Label(), obj.Size())
	}
	fmt.Fprintf(cmd.Stdout, "objects=%d values=%d leaks=%d\n", g.Base().ObjectCount(), g.Base().ValueCount(), len(leaks))
	return nil
}

func (cmd *CheckCommand) usage() {
	fmt.Fprintln(cmd.Stderr, `
usage: smg check [arguments] scenario.toml

Arguments:

	-config path
	    Read engine configuration from path.

	-v
	    Enable verbose logging.
`[1:])
}
