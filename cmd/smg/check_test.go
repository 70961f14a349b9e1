package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckCommand_Run(t *testing.T) {
	t.Run("Leak", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		if err := os.WriteFile(path, []byte(leakScenario), 0666); err != nil {
			t.Fatal(err)
		}

		var stdout, stderr bytes.Buffer
		cmd := &CheckCommand{Stdout: &stdout, Stderr: &stderr}
		if err := cmd.Run(context.Background(), []string{path}); err != nil {
			t.Fatal(err)
		} else if !strings.Contains(stdout.String(), "leak: b (64 bits)") {
			t.Fatalf("unexpected output: %s", stdout.String())
		} else if !strings.Contains(stdout.String(), "leaks=1") {
			t.Fatalf("unexpected output: %s", stdout.String())
		}
	})

	t.Run("ErrNoScenario", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := &CheckCommand{Stdout: &stdout, Stderr: &stderr}
		if err := cmd.Run(context.Background(), nil); err == nil || err.Error() != "scenario required" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrTooManyPops", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		if err := os.WriteFile(path, []byte("pop = 1\n"), 0666); err != nil {
			t.Fatal(err)
		}
		var stdout, stderr bytes.Buffer
		cmd := &CheckCommand{Stdout: &stdout, Stderr: &stderr}
		if err := cmd.Run(context.Background(), []string{path}); err == nil {
			t.Fatal("expected error")
		}
	})
}
