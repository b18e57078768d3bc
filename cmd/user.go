package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/audit"
	"github.com/referents-ia/portail/internal/auth"
)

var userFullName string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
	Long:  `Accounts are provisioned by an administrator; the portal has no self sign-up.`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openConfiguredDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		store := auth.NewStore(database)

		password, err := promptPassword("Mot de passe")
		if err != nil {
			return err
		}
		u, err := store.CreateUser(context.Background(), args[0], password, userFullName)
		if errors.Is(err, auth.ErrEmailTaken) {
			return fmt.Errorf("an account already exists for %s", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Created account %s (%s)\n", u.Email, u.ID)

		_, err = audit.NewStore(database).Log(context.Background(), audit.Entry{
			ActorType:  audit.ActorSystem,
			ActorID:    "cli",
			Action:     audit.ActionUserCreated,
			Resource:   "users",
			ResourceID: u.ID,
			Summary:    "account created for " + u.Email,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not journal the account creation: %v\n", err)
		}
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openUserStore()
		if err != nil {
			return err
		}
		defer closeDB()

		users, err := store.List(context.Background())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EMAIL\tNAME\tCREATED\tID")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Email, u.FullName, u.CreatedAt.Format("2006-01-02"), u.ID)
		}
		return tw.Flush()
	},
}

var userPasswordCmd = &cobra.Command{
	Use:   "password <email>",
	Short: "Reset the password of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openUserStore()
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := context.Background()
		u, err := store.GetByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("no account for %s", args[0])
		}
		password, err := promptPassword("Nouveau mot de passe")
		if err != nil {
			return err
		}
		if err := store.SetPassword(ctx, u.ID, password); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Password updated for %s\n", u.Email)
		return nil
	},
}

func openUserStore() (*auth.Store, func(), error) {
	database, err := openConfiguredDatabase()
	if err != nil {
		return nil, nil, err
	}
	return auth.NewStore(database), func() { database.Close() }, nil
}

func promptPassword(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 8 {
				return fmt.Errorf("8 caractères minimum")
			}
			return nil
		},
	}
	pw, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("password prompt: %w", err)
	}
	return pw, nil
}

func init() {
	userCreateCmd.Flags().StringVar(&userFullName, "name", "", "full name of the referent")
	userCmd.AddCommand(userCreateCmd, userListCmd, userPasswordCmd)
	rootCmd.AddCommand(userCmd)
}
