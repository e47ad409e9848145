package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	ez "github.com/tef/ezpeg"
	"github.com/tef/ezpeg/infix"
	"github.com/tef/ezpeg/json"
)

// grammar is a grammar the command line can run.
type grammar struct {
	description string
	def         *ez.Grammar
	runner      func(opts ...ez.Option) (*ez.Runner, error)
	value       func(res *ez.Result) (any, error)
}

type infixOutput struct {
	Program string    `json:"program"`
	Values  []float64 `json:"values"`
}

func (o infixOutput) String() string {
	return fmt.Sprintf("%s => %v", o.Program, o.Values)
}

var grammars = map[string]grammar{
	"json": {
		description: "JSON documents, decoded",
		def:         json.JsonGrammar,
		runner:      json.Runner,
		value:       json.Value,
	},
	"infix": {
		description: "calculator programs, evaluated",
		def:         infix.InfixGrammar,
		runner:      infix.Runner,
		value: func(res *ez.Result) (any, error) {
			prog, err := infix.Value(res)
			if err != nil {
				return nil, err
			}
			values, err := prog.Eval(nil)
			if err != nil {
				return nil, err
			}
			return infixOutput{Program: prog.String(), Values: values}, nil
		},
	},
}

func lookupGrammar(name string) (grammar, error) {
	g, ok := grammars[name]
	if !ok {
		return grammar{}, errors.Newf("unknown grammar %q, see ez grammars", name)
	}
	return g, nil
}

func grammarNames() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newGrammarsCmd() *cobra.Command {
	var showRules bool

	cmd := &cobra.Command{
		Use:   "grammars",
		Short: "List the grammars parse can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			if showRules {
				table.SetHeader([]string{"Grammar", "Rule"})
				table.SetAutoWrapText(false)
			} else {
				table.SetHeader([]string{"Grammar", "Start", "Warnings", "Description"})
			}

			for _, name := range grammarNames() {
				g := grammars[name]
				if err := g.def.Err(); err != nil {
					return errors.Wrapf(err, "grammar %s", name)
				}
				if !showRules {
					table.Append([]string{name, g.def.Start, strconv.Itoa(len(g.def.Errors())), g.description})
					continue
				}
				root, err := g.def.Root()
				if err != nil {
					return errors.Wrapf(err, "grammar %s", name)
				}
				table.Append([]string{name, root.String()})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRules, "rules", false, "print the start rule of each grammar")
	return cmd
}
