package main

import (
	"fmt"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/spf13/cobra"
)

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Operator API clients",
	}

	var (
		username string
		role     string
		name     string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an operator (if missing) and issue an API client for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := models.RoleOrder(role); !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			return withApp(func(a *app) error {
				return createClient(cmd, a, username, role, name)
			})
		},
	}
	create.Flags().StringVar(&username, "username", "admin", "operator username")
	create.Flags().StringVar(&role, "role", models.RoleOwner, "operator role (development, patrao, responsavel, operario)")
	create.Flags().StringVar(&name, "name", "cli", "client name")

	cmd.AddCommand(create)
	return cmd
}

func createClient(cmd *cobra.Command, a *app, username, role, name string) error {
	user, err := a.users.EnsureUser(username, role)
	if err != nil {
		return fmt.Errorf("ensure operator: %w", err)
	}
	if user.Role != role {
		log.WithField("username", user.Username).Warnf("Operator already exists with role %s", user.Role)
	}

	client, secret, err := a.clients.IssueClient(services.ClientRequest{Name: name, UserID: user.ID})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Operator: %s (%s)\n", user.Username, user.Role)
	fmt.Fprintf(out, "Client ID: %s\n", client.ID)
	fmt.Fprintf(out, "Client Secret: %s\n", secret)
	fmt.Fprintln(out, "The secret is shown once. Request a token with:")
	fmt.Fprintf(out, "  curl -X POST http://%s:%d/oauth/token -d grant_type=client_credentials -d client_id=%s -d client_secret=%s\n",
		a.cfg.Host, a.cfg.Port, client.ID, secret)
	return nil
}
