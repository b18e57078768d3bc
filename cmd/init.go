package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the portal configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM providers, the database and the HTTP port, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Configuration written to %s\n", cfgFile)
		seen := map[string]bool{}
		for _, p := range []config.ProviderType{cfg.LLM.Primary.Provider, cfg.LLM.Secondary.Provider, cfg.LLM.Search.Provider} {
			env := config.APIKeyEnvVar(p)
			if env == "" || seen[env] || os.Getenv(env) != "" {
				continue
			}
			seen[env] = true
			fmt.Fprintf(os.Stderr, "  Remember to set %s in the environment or in %s\n", env, envFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
