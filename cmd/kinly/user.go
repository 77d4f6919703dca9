package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kinly/internal/model"
	"kinly/internal/store"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <email>",
			Short: "Create a confirmed user or reset an existing user's password",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd.Context(), func(st store.Store) error {
					return a.addUser(cmd, st, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd.Context(), func(st store.Store) error {
					return listUsers(cmd, st)
				})
			},
		},
		&cobra.Command{
			Use:   "confirm <email>",
			Short: "Mark a user's email as confirmed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd.Context(), func(st store.Store) error {
					accounts, err := a.accounts(st)
					if err != nil {
						return err
					}
					u, err := accounts.ConfirmEmail(cmd.Context(), args[0])
					if err != nil {
						return fmt.Errorf("confirm %s: %w", args[0], err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "confirmed %s\n", u.Email)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge <email>",
			Short: "Delete every IP, world and content item a user owns",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd.Context(), func(st store.Store) error {
					return a.purgeUser(cmd, st, args[0])
				})
			},
		},
	)
	return cmd
}

func (a *app) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (a *app) addUser(cmd *cobra.Command, st store.Store, email string) error {
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := a.readPassword("Confirm: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	accounts, err := a.accounts(st)
	if err != nil {
		return err
	}
	u, created, err := accounts.SetPassword(cmd.Context(), model.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", u.Email)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "updated password for %s\n", u.Email)
	}
	return nil
}

func listUsers(cmd *cobra.Command, st store.Store) error {
	users, err := st.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "no users")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tCONFIRMED\tCREATED")
	for _, u := range users {
		confirmed := "no"
		if u.Confirmed() {
			confirmed = u.ConfirmedAt.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Email, confirmed, u.CreatedAt.UTC().Format("2006-01-02"))
	}
	return tw.Flush()
}

func (a *app) purgeUser(cmd *cobra.Command, st store.Store, email string) error {
	u, err := st.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	portfolio, err := a.portfolio(st)
	if err != nil {
		return err
	}
	if err := portfolio.DeleteAccountData(cmd.Context(), u.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted all IPs, worlds and content items of %s\n", u.Email)
	return nil
}
