package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	encryptAsset    string
	encryptTarget   string
	encryptMin      string
	encryptUnlockAt string
	encryptNote     string
	encryptIn       string
	encryptOut      string
	encryptJSON     bool
)

func init() {
	encryptCmd.Flags().StringVarP(&encryptAsset, "asset", "a", "", "asset symbol for price conditions, e.g. BTCUSDT")
	encryptCmd.Flags().StringVar(&encryptTarget, "target", "", "unlock when the price is at or above this value")
	encryptCmd.Flags().StringVar(&encryptMin, "min", "", "unlock when the price is at or below this value")
	encryptCmd.Flags().StringVarP(&encryptUnlockAt, "unlock-at", "t", "", "unlock at this time (RFC 3339, \"YYYY-MM-DD HH:MM\" UTC, or +2h / 3d)")
	encryptCmd.Flags().StringVarP(&encryptNote, "note", "m", "", "note text (default: stdin or a hidden prompt)")
	encryptCmd.Flags().StringVarP(&encryptIn, "in", "i", "", "read the note from a file (- for stdin)")
	encryptCmd.Flags().StringVarP(&encryptOut, "out", "o", "", "write the envelope to a file instead of stdout")
	encryptCmd.Flags().BoolVar(&encryptJSON, "json", false, "output envelope, digest and condition as JSON")
}

// resetEncryptCommandState resets the encrypt command's global state for testing.
func resetEncryptCommandState() {
	encryptAsset = ""
	encryptTarget = ""
	encryptMin = ""
	encryptUnlockAt = ""
	encryptNote = ""
	encryptIn = ""
	encryptOut = ""
	encryptJSON = false
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Lock a note behind an unlock condition",
	Long: `Encrypts a note so that it can only be decrypted once its unlock condition holds.

The result is a single ENC[...] string. It holds everything needed to decrypt
the note later, so store it somewhere safe. No key is kept anywhere else.

Examples:
  # Unlock in two hours
  condlock note encrypt --unlock-at +2h --note "hello"

  # Unlock when BTC reaches 150,000 USDT or falls to 40,000 USDT
  echo "sell" | condlock note encrypt --asset BTCUSDT --target 150000 --min 40000

  # Unlock on a date, or earlier if EURUSD reaches 1.25
  condlock note encrypt -t 2030-01-01 -a EURUSD --target 1.25 -i secret.txt -o secret.lock`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")

		sess, err := loadSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, formatNoteError(err))
			return reported(err)
		}

		opts := workflows.EncryptOptions{
			Asset:       encryptAsset,
			TargetPrice: encryptTarget,
			MinPrice:    encryptMin,
			History:     sess.history,
		}
		if encryptUnlockAt != "" {
			at, err := parseUnlockAt(encryptUnlockAt, time.Now())
			if err != nil {
				fmt.Fprintln(os.Stderr, formatNoteError(err))
				return reported(err)
			}
			Logger.Debugf("Unlock time resolved to %s", at.Format(time.RFC3339))
			opts.UnlockAt = &at
		}
		if opts.Asset != "" {
			opts.Catalog = loadCatalog(cmd.Context(), sess.config)
		}

		note, err := readNote(encryptNote, encryptIn)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read note: %v", err)
		}
		opts.Note = note
		Logger.Debugf("Read %d bytes of note", len(note))

		result, err := workflows.Encrypt(cmd.Context(), opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatNoteError(err))
			return reported(err)
		}
		Logger.Infof("Sealed envelope %s", result.Digest)

		if encryptJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result to JSON: %w", err)
			}
			return writeOutput(encryptOut, append(data, '\n'))
		}

		if err := writeOutput(encryptOut, []byte(result.Envelope+"\n")); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, ui.Success.Sprint("✓")+" Locked until "+ui.Highlight.Sprint(result.Condition.String())+" "+ui.Muted.Sprint(result.Digest))
		if encryptOut != "" {
			fmt.Fprintln(os.Stderr, ui.Info.Sprint("→")+" Envelope written to "+ui.Path.Sprint(encryptOut))
		}
		return nil
	},
}
