package cmd

import (
	logger "github.com/PolarWolf314/condlock/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	debug      bool
	configPath string
	Logger     logger.Logger

	NoteCmd = &cobra.Command{
		Use:   "note",
		Short: "Lock and unlock notes",
		Long: `Encrypts notes behind an unlock condition and decrypts them once independent
price and time oracles agree the condition holds.

A condition is any combination of:
  - an unlock time            (--unlock-at)
  - a target price to reach   (--asset with --target)
  - a minimum price to fall to (--asset with --min)

The note unlocks as soon as any one of them holds.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing note command with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	NoteCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	NoteCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	NoteCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: user config directory)")

	NoteCmd.AddCommand(encryptCmd)
	NoteCmd.AddCommand(decryptCmd)
	NoteCmd.AddCommand(inspectCmd)
	NoteCmd.AddCommand(logCmd)
	NoteCmd.AddCommand(assetsCmd)
}

// Helper functions for testing

// GetNoteCmd returns the NoteCmd for testing.
func GetNoteCmd() *cobra.Command {
	return NoteCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	resetEncryptCommandState()
	resetDecryptCommandState()
	resetInspectCommandState()
	resetLogCommandState()
	resetAssetsCommandState()
	for _, c := range NoteCmd.Commands() {
		c.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
