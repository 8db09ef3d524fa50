package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"landrec/internal/registration/catalog"
	"landrec/internal/workflow/rules"
)

type catalogOptions struct {
	format string
}

// newCatalogCommand prints the act type catalog and workflow rules the server
// would load with the current configuration.
func newCatalogCommand(root *rootOptions) *cobra.Command {
	opts := &catalogOptions{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the recording act types and workflow rules in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.format)
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			types, err := catalog.Load(cfg.Registration.ActTypesFile)
			if err != nil {
				return err
			}
			table, err := rules.Load(cfg.Workflow.RulesFile)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeCatalogJSON(cmd.OutOrStdout(), types, table)
			}
			return writeCatalogText(cmd.OutOrStdout(), types, table)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text|json)")
	return cmd
}

type transitionView struct {
	From             string   `json:"from"`
	To               string   `json:"to"`
	Roles            []string `json:"roles"`
	RequiresAssignee bool     `json:"requires_assignee"`
}

func writeCatalogJSON(w io.Writer, types *catalog.Catalog, table *rules.Table) error {
	out := struct {
		ActTypes    []catalog.ActType `json:"act_types"`
		Transitions []transitionView  `json:"transitions"`
	}{ActTypes: types.All()}
	for _, t := range table.All() {
		out.Transitions = append(out.Transitions, transitionView{
			From:             string(t.From),
			To:               string(t.To),
			Roles:            t.Roles,
			RequiresAssignee: t.RequiresAssignee,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeCatalogText(w io.Writer, types *catalog.Catalog, table *rules.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACT TYPE\tCATEGORY\tAPPLIES TO\tAMENDS")
	for _, t := range types.All() {
		kinds := make([]string, 0, len(t.AppliesTo))
		for _, k := range t.AppliesTo {
			kinds = append(kinds, string(k))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Category, strings.Join(kinds, ","), strings.Join(t.AmendsTypes, ","))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "FROM\tTO\tROLES\tASSIGNEE ONLY")
	for _, t := range table.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", t.From, t.To, strings.Join(t.Roles, ","), t.RequiresAssignee)
	}
	return tw.Flush()
}
