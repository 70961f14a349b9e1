package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		usage()
		return flag.ErrHelp
	case "check":
		return NewCheckCommand().Run(ctx, args)
	default:
		return fmt.Errorf(`smg %s: unknown command`, cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `
Smg builds symbolic memory graphs of C program states and checks them for
consistency and memory leaks.

Usage:

	smg <command> [arguments]

The commands are:

	check       verify a heap scenario and report leaks
	help        this screen
`[1:])
}
