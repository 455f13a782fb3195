package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/caseline/internal/match"
)

// clientsFile is the import format: a list under "clients", or a bare list.
type clientsFile struct {
	Clients []match.Client `yaml:"clients"`
}

// ImportResult is the payload of clients import.
type ImportResult struct {
	Imported int `json:"imported"`
}

// NewClientsCommand creates the clients command group.
func NewClientsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the client directory",
	}
	cmd.AddCommand(newClientsImportCommand(rootOpts))
	cmd.AddCommand(newClientsListCommand(rootOpts))
	cmd.AddCommand(newClientsShowCommand(rootOpts))
	return cmd
}

func newClientsImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import clients from a YAML file",
		Long: `Import clients from a YAML file. Existing clients (matched by id,
case-insensitively) are replaced in place and keep their position.

Example file:
  clients:
    - id: C001
      name: John Doe
      fields:
        goals: Sleep hygiene|Reduce anxiety`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return e.failWith(ErrCodeInput, ExitCommandError, err.Error())
			}
			clients, err := decodeClients(data)
			if err != nil {
				return e.failWith(ErrCodeInput, ExitCommandError, fmt.Sprintf("%s: %v", args[0], err))
			}
			for _, c := range clients {
				if err := e.store.PutClient(cmd.Context(), c); err != nil {
					return e.fail(err)
				}
			}
			e.logger.Info("clients imported", "count", len(clients), "file", args[0])

			res := ImportResult{Imported: len(clients)}
			return e.out.Emit(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Imported %d client(s)\n", res.Imported)
				return err
			})
		},
	}
}

func decodeClients(data []byte) ([]match.Client, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return []match.Client{}, nil
	}

	var clients []match.Client
	if node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Content[0].Decode(&clients); err != nil {
			return nil, err
		}
	} else {
		var f clientsFile
		if err := node.Content[0].Decode(&f); err != nil {
			return nil, err
		}
		clients = f.Clients
	}

	for i, c := range clients {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("client %d: missing id", i+1)
		}
	}
	return clients, nil
}

func newClientsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List clients in directory order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			clients, err := e.store.ListClients(cmd.Context())
			if err != nil {
				return e.fail(err)
			}
			goalsCol := e.cfg.Columns.Goals
			return e.out.Emit(clients, func(w io.Writer) error {
				if len(clients) == 0 {
					_, err := fmt.Fprintln(w, "No clients")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tGOALS")
				for _, c := range clients {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Field(goalsCol))
				}
				return tw.Flush()
			})
		},
	}
}

func newClientsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <client-id>",
		Short:         "Show one client with every column",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			c, err := e.store.GetClient(cmd.Context(), args[0])
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(c, func(w io.Writer) error {
				fmt.Fprintf(w, "%s  %s\n", c.ID, c.Name)
				columns := make([]string, 0, len(c.Fields))
				for k := range c.Fields {
					columns = append(columns, k)
				}
				sort.Strings(columns)
				for _, k := range columns {
					fmt.Fprintf(w, "  %s: %s\n", k, c.Fields[k])
				}
				return nil
			})
		},
	}
}
