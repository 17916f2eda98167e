package cli

import (
	"os"

	"github.com/grovetools/dqm/config"
	"github.com/spf13/cobra"
)

// CommandOptions holds common options for dqm commands
type CommandOptions struct {
	ConfigFile string
	ServerURL  string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard dqm flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a dqm.yml or dqm.toml config file")
	cmd.PersistentFlags().String("server", "", "Backend base URL (overrides server.base_url)")

	SetStyledHelp(cmd)

	return cmd
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	serverURL, _ := cmd.Flags().GetString("server")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		ServerURL:  serverURL,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the configuration named by --config, or the layered
// configuration for the working directory, and applies --server.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)

	logger := bootstrapLogger(cmd.ErrOrStderr(), opts.Verbose)

	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		logger.WithField("path", opts.ConfigFile).Debug("Loading configuration file")
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err == nil {
			cfg, err = config.LoadFromWithLogger(cwd, logger)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.ServerURL != "" {
		cfg.Server.BaseURL = opts.ServerURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
