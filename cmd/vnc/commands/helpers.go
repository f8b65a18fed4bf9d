// Package commands implements the vnc command-line interface.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
	"github.com/fivetwenty-io/vnc-client/pkg/vncclient"
	"github.com/fivetwenty-io/vnc-client/pkg/vncconf"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

// Viper keys bound to the root persistent flags.
const (
	KeyConfig  = "config"
	KeyHosts   = "host"
	KeyPort    = "port"
	KeyOutput  = "output"
	KeyVerbose = "verbose"
)

// Static errors for err113 compliance.
var (
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrNoPassword          = errors.New("keystone password required (set AUTHN_PASSWORD or run interactively)")
)

// loadConfig reads the config file named by --config and applies the
// --host and --port overrides.
func loadConfig() (*vnc.Config, error) {
	cfg, err := vncconf.Load(viper.GetString(KeyConfig))
	if err != nil {
		return nil, err
	}

	if hosts := viper.GetStringSlice(KeyHosts); len(hosts) > 0 {
		cfg.Hosts = hosts
	}

	if port := viper.GetInt(KeyPort); port != 0 {
		cfg.Port = port
	}

	if viper.GetBool(KeyVerbose) {
		logger, err := vnc.NewDevelopmentLogger("debug")
		if err != nil {
			return nil, err
		}

		cfg.Logger = logger
	}

	return cfg, nil
}

// createClient builds a connected client, prompting for the keystone
// password when none is configured and stdin is a terminal.
func createClient(ctx context.Context, cmd *cobra.Command) (vnc.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Username != "" && cfg.Auth.Password == "" && cfg.AuthToken == "" {
		password, err := promptPassword(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}

		cfg.Auth.Password = password
	}

	client, err := vncclient.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func promptPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // stdin descriptor fits in int
	if !term.IsTerminal(fd) {
		return "", ErrNoPassword
	}

	_, _ = fmt.Fprint(prompt, "Password: ")

	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(prompt)

	return string(bytePassword), nil
}

// render writes data as json or yaml, or calls table with a fresh table
// writer for the default format.
func render(cmd *cobra.Command, data interface{}, table func(*tablewriter.Table)) error {
	out := cmd.OutOrStdout()

	switch format := viper.GetString(KeyOutput); format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(data)
	case OutputFormatTable, "":
		tw := tablewriter.NewWriter(out)
		table(tw)

		err := tw.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

// parseFQName splits a colon-separated fq-name.
func parseFQName(s string) []string {
	return strings.Split(s, ":")
}

// cell renders a field value for a table.
func cell(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(data)
	}
}
