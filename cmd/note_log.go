package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logOneline   bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logOneline = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local activity history",
	Long: `Displays the local history of encrypt, decrypt and inspect operations.

Entries record the envelope digest, its unlock condition and the oracle
verdict. Notes and keys are never recorded.

Examples:
  condlock note log                        # View full history
  condlock note log -n 10                  # Last 10 entries
  condlock note log --reverse              # Most recent first
  condlock note log --operation decrypt    # Filter by operation
  condlock note log --json                 # JSON output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")

		sess, err := loadSession()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		entries, err := sess.history.ReadEntries()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read history: %v", err)
		}
		total := len(entries)
		Logger.Debugf("Parsed %d entries from %s", total, sess.history.Path)

		entries = filterByOperation(entries, logOperation)
		entries = audit.Tail(entries, logLimit)
		if logReverse {
			entries = slices.Clone(entries)
			slices.Reverse(entries)
		}

		if len(entries) == 0 {
			if total == 0 {
				fmt.Println("No history entries found.")
			} else {
				fmt.Println("No history entries found matching the filters.")
			}
			return nil
		}

		switch {
		case logJSON:
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal entries to JSON: %w", err)
			}
			fmt.Println(string(data))
		case logOneline:
			for _, e := range entries {
				fmt.Printf("%s %s %s %s\n", formatDate(e.Timestamp), e.Operation, e.Digest, formatOutcome(e))
			}
		default:
			for _, e := range entries {
				fmt.Printf("%-19s  %-8s  %-16s  %-14s  %s\n", formatDateTime(e.Timestamp), e.Operation, e.Digest, formatOutcome(e), utils.Ellipsize(e.Condition, 72))
			}
		}
		return nil
	},
}

func filterByOperation(entries []audit.Entry, ops string) []audit.Entry {
	if ops == "" {
		return entries
	}
	wanted := strings.Split(ops, ",")
	for i := range wanted {
		wanted[i] = strings.TrimSpace(wanted[i])
	}
	var out []audit.Entry
	for _, e := range entries {
		if slices.Contains(wanted, e.Operation) {
			out = append(out, e)
		}
	}
	return out
}

func formatOutcome(e audit.Entry) string {
	switch {
	case e.Error != "":
		return ui.Error.Sprint(e.Error)
	case e.Forced:
		return ui.Warning.Sprint("forced")
	case e.Status == "":
		return ui.Success.Sprint("ok")
	case e.Degraded:
		return ui.Status(e.Status) + "*"
	default:
		return ui.Status(e.Status)
	}
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t.Local(), true
}

func formatDate(ts string) string {
	if t, ok := parseTimestamp(ts); ok {
		return t.Format("2006-01-02")
	}
	return ts
}

func formatDateTime(ts string) string {
	if t, ok := parseTimestamp(ts); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return ts
}
