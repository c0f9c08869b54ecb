package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/PolarWolf314/condlock/internal/configs"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/PolarWolf314/condlock/internal/utils"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the configuration condlock is using: the defaults, overridden by
config.toml if it exists.

Examples:
  condlock config show
  condlock config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		path, err := resolveConfigPath()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve config path: %v", err)
		}

		ConfigLogger.Debugf("Loading config from %s", path)
		cfg, err := configs.Load(path)
		if err != nil {
			fmt.Println(formatNoteError(err))
			return reported(err)
		}

		if configShowJSON {
			output, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		source := "defaults"
		if _, err := os.Stat(path); err == nil {
			source = path
		}
		fmt.Println(ui.Info.Sprint("Configuration") + " " + ui.Muted.Sprint(source))
		fmt.Println()
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to encode config: %v", err)
		}

		if settings, err := configs.ResolveUserSettings(); err == nil {
			fmt.Print("\n" + ui.Info.Sprint("Files:") + utils.FormatPaths([]string{path, settings.HistoryPath()}))
		}
		return nil
	},
}
