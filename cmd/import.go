package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/audit"
	"github.com/referents-ia/portail/internal/charters"
	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/importer"
	"github.com/referents-ia/portail/internal/progress"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yml>",
	Short: "Seed the directories from a YAML file",
	Long: `Imports contacts, AI tools, training courses and charters from a YAML
file with the optional sections contacts, tools, courses and charters. Rows that fail validation are reported and skipped; the others are
imported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		file, err := importer.Parse(f)
		f.Close()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		im := &importer.Importer{
			Contacts: contacts.NewStore(database),
			Tools:    tools.NewStore(database),
			Training: training.NewStore(database),
			Charters: charters.NewStore(database),
		}
		res, err := im.Run(ctx, file, progress.NewReporter("Importing"))
		if res != nil {
			printImportResult(res)
			journal := audit.Entry{
				ActorType: audit.ActorSystem,
				ActorID:   "cli",
				Action:    audit.ActionImport,
				Resource:  "directories",
				Summary:   fmt.Sprintf("import %s: %d rows, %d skipped", args[0], res.Total(), len(res.Errors)),
			}
			if _, err := audit.NewStore(database).Log(context.Background(), journal); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not journal the import: %v\n", err)
			}
		}
		if err != nil {
			return err
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d rows could not be imported", len(res.Errors))
		}
		return nil
	},
}

func printImportResult(res *importer.Result) {
	sections := make([]string, 0, len(res.Imported))
	for s := range res.Imported {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	fmt.Fprintf(os.Stderr, "Imported %d rows\n", res.Total())
	for _, s := range sections {
		fmt.Fprintf(os.Stderr, "  %-10s %d\n", s, res.Imported[s])
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  skipped %s\n", e)
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
}
