package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/config"
	"github.com/grovetools/dqm/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the dqm configuration",
		Long: `Inspect the dqm configuration.

The configuration is built by merging layers:
1. Global config (~/.config/dqm/dqm.yml)
2. Project config (dqm.yml, searched upward from the working directory)
3. Override files (dqm.override.yml)
4. DQM_SERVER_URL and --server`,
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(out, configDocument(cfg))
			}

			source := cli.GetOptions(cmd).ConfigFile
			if source == "" {
				if cwd, err := os.Getwd(); err == nil {
					source, _ = config.FindConfigFile(cwd)
				}
			}
			if source != "" {
				fmt.Fprintf(out, "# Source: %s\n", source)
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// configDocument is cfg with its extensions inlined at the top level, as it
// appears in dqm.yml.
func configDocument(cfg *config.Config) map[string]interface{} {
	var doc map[string]interface{}
	data, err := yaml.Marshal(cfg)
	if err == nil {
		_ = yaml.Unmarshal(data, &doc)
	}
	return doc
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of dqm.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(schema.Schema())
			return err
		},
	}
}
