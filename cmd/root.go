package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "portail",
	Short: "Backend of the Référents IA portal",
	Long: `Portail serves the Référents IA portal API: referent profiles, the
contact and tool directories, the forum, charters and training, the
assistant chat panels, the AI watch (veille), the needs form PDF and the
document downloads.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".portail.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
