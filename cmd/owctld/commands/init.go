package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plume-design/opensync-sub020/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample owctld configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/owctld/config.yaml.
Use --config to specify a custom path.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if !initForce {
		if err := checkNotExists(path); err != nil {
			return err
		}
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("Edit it, then start the daemon with: owctld start")
	return nil
}

func checkNotExists(path string) error {
	if exists(path) {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}
	return nil
}
