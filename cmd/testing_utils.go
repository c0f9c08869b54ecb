// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and replacing the oracles with fixed answers.
package cmd

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/configs"
	logger "github.com/PolarWolf314/condlock/internal/logging"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/spf13/cobra"
)

// fixedChecker answers every round with the same status.
type fixedChecker struct {
	status oracle.Status
	calls  int
}

func (f *fixedChecker) Check(_ context.Context, cond conditions.Condition) (*oracle.Report, error) {
	f.calls++
	r := &oracle.Report{RoundID: "test-round", CheckedAt: time.Now().UTC()}
	decision := oracle.Decision{Status: f.status, Sources: 3, Succeeded: 3, Quorum: 2}
	if cond.HasTime() {
		decision.Reason = "unlock time " + cond.UnlockTime + " has not been reached"
		r.Time = &oracle.Branch{Kind: oracle.BranchTime, Predicate: "time >= " + cond.UnlockTime, Decision: decision}
	}
	if cond.HasTarget() {
		d := decision
		d.Reference = "999"
		r.Above = &oracle.Branch{Kind: oracle.BranchAbove, Predicate: cond.Asset + " >= " + cond.TargetPrice, Decision: d}
	}
	return r, nil
}

// setupTestEnvironment points the user config and state directories at a
// temporary directory and replaces the oracles with checker.
// Returns the temporary directory.
func setupTestEnvironment(t *testing.T, checker *fixedChecker) string {
	t.Helper()
	tempDir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tempDir, "state"))
	t.Setenv("NO_COLOR", "1")

	originalChecker := newChecker
	newChecker = func(*configs.Config, *catalog.Catalog, *oracle.Metrics) (workflows.ConditionChecker, error) {
		if checker == nil {
			t.Fatalf("oracles must not be contacted in this test")
		}
		return checker, nil
	}

	ResetGlobalState()
	ResetConfigState()
	t.Cleanup(func() {
		newChecker = originalChecker
		ResetGlobalState()
		ResetConfigState()
	})
	return tempDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stdoutReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stderrReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// createTestCLI creates a complete CLI instance for testing that runs args.
func createTestCLI(args ...string) *cobra.Command {
	Logger = logger.Logger{Verbose: verbose, Debug: debug}

	rootCmd := &cobra.Command{
		Use:           "condlock",
		Short:         "condlock - lock notes until a time passes or a price is reached.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.AddCommand(NoteCmd)
	rootCmd.AddCommand(ConfigCmd)
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs args and returns the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	ResetConfigState()
	return captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
}
