package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/condlock/internal/conditions"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	decryptForce bool
	decryptOut   string
	decryptJSON  bool
	decryptTTY   bool
)

func init() {
	decryptCmd.Flags().BoolVar(&decryptForce, "force", false, "skip the oracle check (the envelope is still verified)")
	decryptCmd.Flags().StringVarP(&decryptOut, "out", "o", "", "write the note to a file instead of stdout")
	decryptCmd.Flags().BoolVar(&decryptJSON, "json", false, "output the note and the oracle report as JSON")
	decryptCmd.Flags().BoolVar(&decryptTTY, "tty", false, "write the note straight to the terminal, bypassing stdout")
}

// resetDecryptCommandState resets the decrypt command's global state for testing.
func resetDecryptCommandState() {
	decryptForce = false
	decryptOut = ""
	decryptJSON = false
	decryptTTY = false
}

// decryptOutput is the --json form of a decrypted note.
type decryptOutput struct {
	Note      string               `json:"note"`
	Digest    string               `json:"digest"`
	Condition conditions.Condition `json:"condition"`
	Forced    bool                 `json:"forced,omitempty"`
	Report    *oracle.Report       `json:"report,omitempty"`
	Messages  []string             `json:"messages,omitempty"`
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [ENVELOPE | FILE | -]",
	Short: "Decrypt a note whose unlock condition holds",
	Long: `Verifies an envelope, asks the price and time oracles whether its unlock
condition holds, and decrypts the note only if it does.

The envelope can be given inline, as a file path, or on stdin.

Exit status is 3 while the note is still locked, 4 when the oracles could not
decide, 5 when the envelope was tampered with and 6 when it is malformed.

Examples:
  condlock note decrypt secret.lock
  condlock note decrypt 'ENC[eyJ2Ijox...]'
  cat secret.lock | condlock note decrypt --json
  condlock note decrypt --tty secret.lock    # keep the note out of shell pipes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")

		env, err := readEnvelope(args)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read envelope: %v", err)
		}

		sess, err := loadSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, formatNoteError(err))
			return reported(err)
		}

		opts := workflows.DecryptOptions{
			Envelope: env,
			Force:    decryptForce,
			History:  sess.history,
		}
		if decryptForce {
			Logger.WarnfAlways("Skipping the oracle check (--force)")
		} else {
			checker, err := newChecker(sess.config, loadCatalog(cmd.Context(), sess.config), nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatNoteError(err))
				return reported(err)
			}
			opts.Checker = checker
		}

		ctx, cancel := roundContext(cmd.Context(), sess.config)
		defer cancel()

		spinner, cleanup := startSpinner("Asking the oracles...", verbose)
		result, err := workflows.Decrypt(ctx, opts)
		if err != nil {
			spinner.FinalMSG = formatNoteError(err)
			cleanup()
			return reported(err)
		}
		if result.Report != nil {
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Unlocked " + ui.Muted.Sprint("round "+result.Report.RoundID)
			if result.Report.Degraded() {
				spinner.FinalMSG += "\n" + ui.Warning.Sprint("⚠") + " Decided by fewer sources than the configured quorum"
			}
		}
		cleanup()
		Logger.Infof("Decrypted envelope %s", result.Digest)

		if decryptJSON {
			data, err := json.MarshalIndent(decryptOutput{
				Note:      string(result.Note),
				Digest:    result.Digest,
				Condition: result.Condition,
				Forced:    decryptForce,
				Report:    result.Report,
				Messages:  result.Messages,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result to JSON: %w", err)
			}
			return writeOutput(decryptOut, append(data, '\n'))
		}
		if decryptTTY {
			if err := utils.WriteToTTY(ui.EnsureNewline(string(result.Note))); err != nil {
				return Logger.ErrorfAndReturn("Failed to write to terminal: %v", err)
			}
			return nil
		}
		if err := writeOutput(decryptOut, result.Note); err != nil {
			return err
		}
		if decryptOut != "" {
			fmt.Fprintln(os.Stderr, ui.Info.Sprint("→")+" Note written to "+ui.Path.Sprint(decryptOut))
		}
		return nil
	},
}
