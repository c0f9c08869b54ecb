package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/configs"
	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// The spinner and its final message go to stderr so that stdout carries only
// the envelope or the note.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		Logger.Debugf("Starting spinner in non-verbose mode")
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			log.SetOutput(os.Stderr)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(os.Stderr, finalMsg)
		}
	}

	return s, cleanup
}

// session is what every note command needs from the user's environment.
type session struct {
	settings *configs.UserSettings
	config   *configs.Config
	history  *audit.Log
}

func loadSession() (*session, error) {
	settings, err := configs.ResolveUserSettings()
	if err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = settings.ConfigPath()
	}
	Logger.Debugf("Loading config from %s", path)
	cfg, err := configs.Load(path)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Recording history to %s", settings.HistoryPath())
	return &session{
		settings: settings,
		config:   cfg,
		history:  audit.Open(settings.HistoryPath()),
	}, nil
}

// httpClient is shared by the catalog and the price sources. Per-request
// deadlines come from contexts.
var httpClient = &http.Client{}

func loadCatalog(ctx context.Context, cfg *configs.Config) *catalog.Catalog {
	c, err := workflows.LoadCatalog(ctx, cfg.Catalog, httpClient)
	if err != nil {
		Logger.Warnf("Could not fetch the asset list, using the built-in one: %v", err)
	}
	Logger.Debugf("Asset catalog has %d entries", c.Len())
	return c
}

// newChecker builds the oracle checker from config. Tests replace it.
var newChecker = func(cfg *configs.Config, c *catalog.Catalog, metrics *oracle.Metrics) (workflows.ConditionChecker, error) {
	return workflows.NewChecker(cfg.Oracle, workflows.OracleDeps{
		Client:  httpClient,
		Catalog: c,
		Logger:  Logger,
		Metrics: metrics,
	})
}

// parseUnlockAt accepts an RFC 3339 timestamp, a "2006-01-02 15:04" UTC time,
// or an offset from now such as "+90m", "2h30m" or "3d".
func parseUnlockAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: unlock time is empty", kerrors.ErrInvalidCondition)
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	offset := strings.TrimPrefix(raw, "+")
	if days, ok := strings.CutSuffix(offset, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil && n > 0 {
			return now.Add(time.Duration(n) * 24 * time.Hour).UTC(), nil
		}
	}
	if d, err := time.ParseDuration(offset); err == nil && d > 0 {
		return now.Add(d).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse unlock time %q (use RFC 3339, \"YYYY-MM-DD HH:MM\" or an offset like +2h)", kerrors.ErrInvalidCondition, raw)
}

// readNote returns the note from --note, --in, piped stdin or a hidden prompt,
// in that order.
func readNote(note, inPath string) ([]byte, error) {
	switch {
	case note != "":
		Logger.Debugf("Reading note from --note")
		return []byte(note), nil
	case inPath == "-":
		return utils.ReadStdin()
	case inPath != "":
		Logger.Debugf("Reading note from %s", inPath)
		data, err := os.ReadFile(inPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read note: %w", err)
		}
		return data, nil
	case !utils.IsTerminal():
		return utils.ReadStdin()
	default:
		return utils.ReadHidden("Note (input hidden): ")
	}
}

// readEnvelope returns the envelope given as an argument, as a file path, or on stdin.
func readEnvelope(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		Logger.Debugf("Reading envelope from stdin")
		if utils.IsTerminal() {
			return "", fmt.Errorf("no envelope given (pass it as an argument, a file path, or on stdin)")
		}
		return utils.ReadEnvelopeInput(os.Stdin)
	}

	arg := strings.TrimSpace(args[0])
	if strings.HasPrefix(arg, "ENC[") {
		Logger.Debugf("Using envelope %s", utils.Ellipsize(arg, 48))
		return arg, nil
	}

	Logger.Debugf("Reading envelope from %s", arg)
	f, err := os.Open(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read envelope: %w", err)
	}
	defer f.Close()
	return utils.ReadEnvelopeInput(f)
}

// writeOutput writes data to path with owner-only permissions, or to stdout
// when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
		if utils.IsStdoutTerminal() && len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// roundContext bounds one oracle round by the configured round timeout.
func roundContext(parent context.Context, cfg *configs.Config) (context.Context, context.CancelFunc) {
	if d := cfg.Oracle.RoundTimeout.Duration; d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

// formatNoteError formats a workflow error for display to the user.
func formatNoteError(err error) string {
	var locked *workflows.LockedError
	if errors.As(err, &locked) {
		head := ui.Error.Sprint("✗") + " Still locked"
		if errors.Is(err, kerrors.ErrOracleUnavailable) {
			head = ui.Warning.Sprint("⚠") + " The oracles could not decide"
		}
		msg := head + " " + ui.Muted.Sprint(locked.Condition.String()) + utils.FormatList(locked.Messages)
		if kerrors.IsRetryable(err) {
			msg += ui.Info.Sprint("→") + " Run the same command again later"
		}
		return msg
	}

	switch {
	case errors.Is(err, kerrors.ErrFormat), errors.Is(err, kerrors.ErrUnsupportedVersion):
		return ui.Error.Sprint("✗") + " Not a valid envelope: " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Envelopes look like " + ui.Code.Sprint("ENC[...]")

	case errors.Is(err, kerrors.ErrIntegrity):
		return ui.Error.Sprint("✗") + " The envelope has been modified and cannot be trusted"

	case errors.Is(err, kerrors.ErrDecryptFailed):
		return ui.Error.Sprint("✗") + " Decryption failed"

	case errors.Is(err, kerrors.ErrInvalidCondition):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Conditions are set with " + ui.Flag.Sprint("--unlock-at") + ", " +
			ui.Flag.Sprint("--target") + " and " + ui.Flag.Sprint("--min")

	case errors.Is(err, kerrors.ErrEmptyNote):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrUnknownAsset):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("condlock note assets <prefix>") + " to find a symbol"

	case errors.Is(err, kerrors.ErrConfigInvalid):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Check " + ui.Code.Sprint("condlock config show")

	case errors.Is(err, context.DeadlineExceeded):
		return ui.Error.Sprint("✗") + " Timed out waiting for the oracles"

	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// reported wraps err so that main does not print it a second time.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitLocked      = 3
	ExitUnavailable = 4
	ExitTampered    = 5
	ExitMalformed   = 6
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, kerrors.ErrConditionNotMet):
		return ExitLocked
	case errors.Is(err, kerrors.ErrOracleUnavailable):
		return ExitUnavailable
	case errors.Is(err, kerrors.ErrIntegrity):
		return ExitTampered
	case errors.Is(err, kerrors.ErrFormat), errors.Is(err, kerrors.ErrUnsupportedVersion):
		return ExitMalformed
	default:
		return ExitError
	}
}
