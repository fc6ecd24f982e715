package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/supla-lite/suplad/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a sample configuration file with a small demonstration world
(relays, sensors, a dimmer and a scene) to the default location, or to
the path given with --config.

Edit the generated file to declare your own devices, channels and
scenes before starting the server.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.ExampleConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n\n", path)
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the configuration file to declare your devices and scenes")
	fmt.Println("  2. Start the server with: suplad start")
	return nil
}
