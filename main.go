package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/condlock/cmd"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "condlock",
	Short: "condlock - lock notes until a time passes or a price is reached.",
	Long: `condlock encrypts notes so they can only be decrypted once an unlock condition
holds: a moment in time, an asset reaching a target price, or an asset falling
to a minimum price. Independent price and time oracles must agree before a note
is opened.

Usage:
  condlock <command> [flags]

Available Commands:
  note       Encrypt, decrypt and inspect notes
  config     Manage configuration
  serve      Run the local JSON API

Run 'condlock help <command>' for more details on a specific command.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to condlock! Run 'condlock --help' to see available commands.")
	},
}

func init() {
	rootCmd.AddCommand(cmd.NoteCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
	rootCmd.AddCommand(cmd.ServeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !cmd.IsReported(err) {
			fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
		}
		os.Exit(cmd.ExitCode(err))
	}
}
