package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// ErrInvalidFilter is returned for a --filter value without '='.
var ErrInvalidFilter = errors.New("filter must be KEY=VALUE")

// objectView is the json/yaml shape of one object.
type objectView struct {
	UUID   string                 `json:"uuid"                  yaml:"uuid"`
	Type   string                 `json:"type"                  yaml:"type"`
	FQName []string               `json:"fq_name"               yaml:"fq_name"`
	Parent string                 `json:"parent_uuid,omitempty" yaml:"parent_uuid,omitempty"`
	Fields map[string]interface{} `json:"fields,omitempty"      yaml:"fields,omitempty"`
}

func viewOf(obj *vnc.Object) objectView {
	return objectView{
		UUID:   obj.UUID,
		Type:   obj.Type,
		FQName: obj.FQName,
		Parent: obj.ParentUUID,
		Fields: obj.Fields,
	}
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		detail     bool
		count      bool
		shared     bool
		parentFQ   string
		parentIDs  []string
		fields     []string
		rawFilters []string
	)

	cmd := &cobra.Command{
		Use:   "list TYPE",
		Short: "List resources of a type",
		Long:  "List resources of a type, optionally scoped to a parent and filtered by field values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			rc, err := client.Resource(args[0])
			if err != nil {
				return err
			}

			opts := vnc.ListOptions{
				ParentID: parentIDs,
				Fields:   fields,
				Detail:   detail,
				Count:    count,
				Shared:   shared,
				Filters:  filters,
			}
			if parentFQ != "" {
				opts.ParentFQName = parseFQName(parentFQ)
			}

			result, err := rc.List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", args[0], err)
			}

			return renderList(cmd, rc.Type(), result, count, detail, fields)
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "return full objects")
	cmd.Flags().BoolVar(&count, "count", false, "return the number of matching resources only")
	cmd.Flags().BoolVar(&shared, "shared", false, "include resources shared with the tenant")
	cmd.Flags().StringVar(&parentFQ, "parent-fq-name", "", "parent fully qualified name (a:b:c)")
	cmd.Flags().StringSliceVar(&parentIDs, "parent-id", nil, "parent uuid (repeatable)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return (repeatable)")
	cmd.Flags().StringArrayVar(&rawFilters, "filter", nil, "KEY=VALUE field filter (repeatable)")

	return cmd
}

func renderList(cmd *cobra.Command, objType string, result *vnc.ListResult, count, detail bool, fields []string) error {
	if count {
		return render(cmd, map[string]int{"count": result.Count}, func(table *tablewriter.Table) {
			table.Header("Count")
			_ = table.Append([]string{fmt.Sprint(result.Count)})
		})
	}

	if !detail {
		items, _ := result.Raw[objType+"s"].([]interface{})

		return render(cmd, result.Raw, func(table *tablewriter.Table) {
			table.Header("UUID", "FQ Name")

			for _, item := range items {
				entry, _ := item.(map[string]interface{})
				obj := &vnc.Object{}
				obj.FromMap(entry)
				_ = table.Append(obj.UUID, obj.FQNameString())
			}
		})
	}

	views := make([]objectView, 0, len(result.Objects))
	for _, obj := range result.Objects {
		views = append(views, viewOf(obj))
	}

	return render(cmd, views, func(table *tablewriter.Table) {
		header := []interface{}{"UUID", "FQ Name"}
		for _, f := range fields {
			header = append(header, f)
		}

		table.Header(header...)

		for _, obj := range result.Objects {
			row := []string{obj.UUID, obj.FQNameString()}
			for _, f := range fields {
				v, _ := obj.Get(f)
				row = append(row, cell(v))
			}

			_ = table.Append(row)
		}
	})
}

// NewReadCommand creates the read command.
func NewReadCommand() *cobra.Command {
	var (
		fields   []string
		byFQName bool
	)

	cmd := &cobra.Command{
		Use:   "read TYPE UUID",
		Short: "Read one resource",
		Long:  "Read one resource by uuid, or by fully qualified name with --fq-name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			rc, err := client.Resource(args[0])
			if err != nil {
				return err
			}

			opts := vnc.ReadOptions{ID: args[1], Fields: fields}
			if byFQName {
				opts = vnc.ReadOptions{FQNameStr: args[1], Fields: fields}
			}

			obj, err := rc.Read(ctx, opts)
			if err != nil {
				return err
			}

			return render(cmd, viewOf(obj), func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("UUID", obj.UUID)
				_ = table.Append("FQ Name", obj.FQNameString())

				if obj.ParentUUID != "" {
					_ = table.Append("Parent", obj.ParentType+" "+obj.ParentUUID)
				}

				names := make([]string, 0, len(obj.Fields))
				for name := range obj.Fields {
					names = append(names, name)
				}

				sort.Strings(names)

				for _, name := range names {
					_ = table.Append(name, cell(obj.Fields[name]))
				}
			})
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return (repeatable)")
	cmd.Flags().BoolVar(&byFQName, "fq-name", false, "treat the second argument as a fully qualified name")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TYPE UUID",
		Short: "Delete one resource",
		Long:  "Delete one resource by uuid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			rc, err := client.Resource(args[0])
			if err != nil {
				return err
			}

			err = rc.Delete(ctx, vnc.ReadOptions{ID: args[1]})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])

			return nil
		},
	}
}

// parseFilters turns KEY=VALUE pairs into list filters. Repeated keys
// accumulate values.
func parseFilters(raw []string) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil //nolint:nilnil // no filters requested
	}

	values := make(map[string][]string)

	for _, r := range raw {
		key, value, ok := strings.Cut(r, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, r)
		}

		values[key] = append(values[key], value)
	}

	filters := make(map[string]interface{}, len(values))

	for key, vs := range values {
		if len(vs) == 1 {
			filters[key] = vs[0]

			continue
		}

		filters[key] = vs
	}

	return filters, nil
}
