package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/PolarWolf314/condlock/internal/configs"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configInitForce         bool
	configInitQuorum        int
	configInitAllowDegraded bool
	configInitOnline        bool
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing configuration")
	configInitCmd.Flags().IntVar(&configInitQuorum, "quorum", 0, "number of agreeing sources required (default 2)")
	configInitCmd.Flags().BoolVar(&configInitAllowDegraded, "allow-degraded", false, "accept decisions from fewer sources than the quorum")
	configInitCmd.Flags().BoolVar(&configInitOnline, "online-catalog", false, "fetch the asset list from the exchange instead of the built-in list")
	ConfigCmd.AddCommand(configInitCmd)
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitForce = false
	configInitQuorum = 0
	configInitAllowDegraded = false
	configInitOnline = false
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	settings, err := configs.ResolveUserSettings()
	if err != nil {
		return "", err
	}
	return settings.ConfigPath(), nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Writes a config.toml with the default oracle and server settings.

Examples:
  condlock config init
  condlock config init --quorum 3 --online-catalog
  condlock config init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		path, err := resolveConfigPath()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve config path: %v", err)
		}

		if _, err := os.Stat(path); err == nil && !configInitForce {
			fmt.Println(ui.Warning.Sprint("⚠") + " A configuration already exists at " + ui.Path.Sprint(path))
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("condlock config init --force") + " to overwrite it")
			return nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ConfigLogger.ErrorfAndReturn("Failed to check %s: %v", path, err)
		}

		cfg := configs.Default()
		if configInitQuorum != 0 {
			cfg.Oracle.Quorum = configInitQuorum
		}
		cfg.Oracle.AllowDegraded = configInitAllowDegraded
		cfg.Catalog.Online = configInitOnline

		if err := cfg.Validate(); err != nil {
			fmt.Println(formatNoteError(err))
			return reported(err)
		}

		ConfigLogger.Debugf("Writing config to %s", path)
		if err := configs.Save(path, cfg); err != nil {
			return ConfigLogger.ErrorfAndReturn("%v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Configuration written to " + ui.Path.Sprint(path))
		return nil
	},
}
