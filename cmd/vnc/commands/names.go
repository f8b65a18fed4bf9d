package commands

import (
	"context"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// NewFQNameToIDCommand creates the fqname-to-id command.
func NewFQNameToIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fqname-to-id TYPE FQ_NAME",
		Short: "Resolve a fully qualified name to a uuid",
		Long:  "Resolve a colon-separated fully qualified name, e.g. default-domain:admin:blue, to a uuid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			id, err := client.FQNameToID(ctx, args[0], parseFQName(args[1]))
			if err != nil {
				return err
			}

			if id == "" {
				return vnc.ErrNotFound
			}

			return render(cmd, map[string]string{"uuid": id}, func(table *tablewriter.Table) {
				table.Header("UUID")
				_ = table.Append([]string{id})
			})
		},
	}
}

// NewIDToFQNameCommand creates the id-to-fqname command.
func NewIDToFQNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id-to-fqname UUID",
		Short: "Resolve a uuid to its fully qualified name and type",
		Long:  "Resolve a uuid to its fully qualified name and resource type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			fqName, objType, err := client.IDToFQNameType(ctx, args[0])
			if err != nil {
				return err
			}

			reply := map[string]interface{}{"fq_name": fqName, "type": objType}

			return render(cmd, reply, func(table *tablewriter.Table) {
				table.Header("Type", "FQ Name")
				_ = table.Append(objType, strings.Join(fqName, ":"))
			})
		},
	}
}
