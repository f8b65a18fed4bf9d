package commands

import (
	"context"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Log in and print a fresh token",
		Long:  "Authenticate with the configured credentials and print the token sent as X-AUTH-TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			token, err := client.GetAuthToken(ctx)
			if err != nil {
				return err
			}

			return render(cmd, map[string]string{"token": token}, func(table *tablewriter.Table) {
				table.Header("Token")
				_ = table.Append([]string{token})
			})
		},
	}
}
