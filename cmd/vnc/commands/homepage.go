package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewHomepageCommand creates the homepage command.
func NewHomepageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "homepage",
		Short: "Display the API server capabilities",
		Long:  "Fetch the discovery document and list the resource types and actions it advertises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			doc, err := client.Homepage(ctx)
			if err != nil {
				return fmt.Errorf("failed to get homepage: %w", err)
			}

			links := append(doc.Links[:0:0], doc.Links...)
			sort.SliceStable(links, func(i, j int) bool {
				if links[i].Link.Rel != links[j].Link.Rel {
					return links[i].Link.Rel < links[j].Link.Rel
				}

				return links[i].Link.Name < links[j].Link.Name
			})

			return render(cmd, doc, func(table *tablewriter.Table) {
				table.Header("Rel", "Name", "Href")

				for _, l := range links {
					_ = table.Append(l.Link.Rel, l.Link.Name, l.Link.Href)
				}
			})
		},
	}
}
