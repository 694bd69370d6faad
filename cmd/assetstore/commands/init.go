package commands

import (
	"fmt"

	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample assetstore configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/assetstore/config.yaml. Use --config to specify a custom
path.

Examples:
  # Initialize with default location
  assetstore init

  # Initialize with custom path
  assetstore init --config /etc/assetstore/config.yaml

  # Force overwrite existing config
  assetstore init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		configPath, err = config.InitConfigToPath(configFile, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Run migrations: assetstore migrate")
	fmt.Printf("  3. Import a beatmap set: assetstore import <path-to-archive.osz>\n")
	return nil
}
