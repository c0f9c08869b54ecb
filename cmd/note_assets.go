package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	assetsLimit  int
	assetsOnline bool
	assetsJSON   bool
)

func init() {
	assetsCmd.Flags().IntVarP(&assetsLimit, "number", "n", 20, "maximum number of assets to show (0 for all)")
	assetsCmd.Flags().BoolVar(&assetsOnline, "online", false, "fetch the current symbol list instead of using the configured source")
	assetsCmd.Flags().BoolVar(&assetsJSON, "json", false, "output as JSON array")
}

// resetAssetsCommandState resets the assets command's global state for testing.
func resetAssetsCommandState() {
	assetsLimit = 20
	assetsOnline = false
	assetsJSON = false
}

var assetsCmd = &cobra.Command{
	Use:   "assets [PREFIX]",
	Short: "Search the assets that price conditions can use",
	Long: `Lists asset symbols whose symbol or base asset starts with PREFIX.

Examples:
  condlock note assets btc
  condlock note assets --online sol
  condlock note assets -n 0 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting assets command")

		sess, err := loadSession()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}
		if assetsOnline {
			sess.config.Catalog.Online = true
		}

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}

		spinner, cleanup := startSpinner("Loading assets...", verbose)
		c := loadCatalog(cmd.Context(), sess.config)
		spinner.FinalMSG = ""
		cleanup()

		assets := c.Search(prefix, assetsLimit)
		if assetsJSON {
			if assets == nil {
				fmt.Println("[]")
				return nil
			}
			data, err := json.MarshalIndent(assets, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal assets to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(assets) == 0 {
			fmt.Printf("No assets found matching %q.\n", prefix)
			return nil
		}
		for _, a := range assets {
			fmt.Printf("%-14s %-8s %-8s %s\n", a.Symbol, a.Base, a.Quote, a.Class)
		}
		return nil
	},
}
