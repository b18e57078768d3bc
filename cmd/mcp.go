package cmd

import (
	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/contacts"
	mcpserver "github.com/referents-ia/portail/internal/mcp"
	"github.com/referents-ia/portail/internal/pages"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the contact, tool and training directories and the information pages to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		library, err := pages.Load()
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		srv := mcpserver.NewServer(mcpserver.Deps{
			Contacts: contacts.NewStore(database),
			Tools:    tools.NewStore(database),
			Training: training.NewStore(database),
			Pages:    library,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
