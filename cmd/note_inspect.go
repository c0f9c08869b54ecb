package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	inspectNoCheck bool
	inspectJSON    bool
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectNoCheck, "no-check", false, "only verify the envelope, do not contact the oracles")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON, including every oracle reading")
}

// resetInspectCommandState resets the inspect command's global state for testing.
func resetInspectCommandState() {
	inspectNoCheck = false
	inspectJSON = false
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [ENVELOPE | FILE | -]",
	Short: "Show an envelope's unlock condition and whether it holds",
	Long: `Verifies an envelope and shows its unlock condition without decrypting it.

Unless --no-check is given, the oracles are asked whether the condition holds
right now and each reading is shown.

Examples:
  condlock note inspect secret.lock
  condlock note inspect --no-check secret.lock
  condlock note inspect --json secret.lock`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting inspect command")

		env, err := readEnvelope(args)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read envelope: %v", err)
		}

		sess, err := loadSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, formatNoteError(err))
			return reported(err)
		}

		opts := workflows.InspectOptions{Envelope: env, History: sess.history}
		if !inspectNoCheck {
			checker, err := newChecker(sess.config, loadCatalog(cmd.Context(), sess.config), nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatNoteError(err))
				return reported(err)
			}
			opts.Checker = checker
		}

		ctx, cancel := roundContext(cmd.Context(), sess.config)
		defer cancel()

		message := "Verifying envelope..."
		if opts.Checker != nil {
			message = "Asking the oracles..."
		}
		spinner, cleanup := startSpinner(message, verbose)
		result, err := workflows.Inspect(ctx, opts)
		if err != nil {
			spinner.FinalMSG = formatNoteError(err)
			cleanup()
			return reported(err)
		}
		cleanup()

		if inspectJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Print(formatInspect(result))
		return nil
	},
}

func formatInspect(r *workflows.InspectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s %s\n", "Envelope:", ui.Success.Sprint("✓")+" signature valid "+ui.Muted.Sprintf("v%d", r.Version))
	fmt.Fprintf(&b, "%-11s %s\n", "Digest:", r.Digest)
	fmt.Fprintf(&b, "%-11s %s\n", "Unlocks:", ui.Highlight.Sprint(r.Predicate))
	if r.Report == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "%-11s %s %s\n", "Status:", ui.Status(r.Status), ui.Muted.Sprint("round "+r.Report.RoundID))
	for _, m := range r.Messages {
		b.WriteString("  " + ui.Info.Sprint("→") + " " + m + "\n")
	}

	for _, branch := range r.Report.Branches() {
		b.WriteString("\n" + ui.Info.Sprint(branch.Predicate) + " " + ui.Status(branch.Status.String()) + "\n")
		for _, p := range branch.Prices {
			b.WriteString(formatReading(p.Source, p.Price.String(), p.Error, p.Latency))
		}
		for _, t := range branch.Times {
			b.WriteString(formatReading(t.Source, t.Time.UTC().Format("2006-01-02 15:04:05Z"), t.Error, t.Latency))
		}
	}
	return b.String()
}

func formatReading(source, value, errMsg string, latency time.Duration) string {
	if errMsg != "" {
		return fmt.Sprintf("    %-18s %s\n", source, ui.Error.Sprint(errMsg))
	}
	return fmt.Sprintf("    %-18s %-24s %s\n", source, value, ui.Muted.Sprint(latency.Round(time.Millisecond)))
}

