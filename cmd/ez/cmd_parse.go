package main

import (
	"context"
	stdjson "encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ez "github.com/tef/ezpeg"
	"github.com/tef/ezpeg/input"
	"github.com/tef/ezpeg/observe"
)

func newParseCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse files with a grammar and print the result",
		Long: `Parse files with a grammar and print the result.

A file named - is read from standard input. Settings are read from
./ez.yaml, or the file given with --config, and from EZ_* environment
variables; flags take precedence.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd, *configFile)
			if err != nil {
				return err
			}
			p, err := newParser(cmd, v)
			if err != nil {
				return err
			}

			failed := 0
			for _, name := range args {
				if err := p.parseFile(cmd.Context(), name); err != nil {
					p.logger.Error(err, "parse failed", "file", name)
					failed++
				}
			}
			if v.GetBool("stats") {
				if err := p.printStats(); err != nil {
					return err
				}
			}

			if v.GetBool("watch") {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return p.watch(ctx, args)
			}
			if failed > 0 {
				return errors.Newf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringP("grammar", "g", "json", fmt.Sprintf("grammar to parse with %v", grammarNames()))
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, table)")
	cmd.Flags().Bool("trace", false, "print every rule tried")
	cmd.Flags().Bool("stats", false, "print rule match counts")
	cmd.Flags().Bool("watch", false, "parse again whenever a file changes")
	return cmd
}

type parser struct {
	name     string
	grammar  grammar
	runner   *ez.Runner
	format   string
	out      io.Writer
	in       io.Reader
	logger   logr.Logger
	recorder *observe.Recorder
	registry *prometheus.Registry
}

func newParser(cmd *cobra.Command, v *viper.Viper) (*parser, error) {
	name := v.GetString("grammar")
	g, err := lookupGrammar(name)
	if err != nil {
		return nil, err
	}
	p := &parser{
		name:    name,
		grammar: g,
		format:  v.GetString("format"),
		out:     cmd.OutOrStdout(),
		in:      cmd.InOrStdin(),
		logger:  newLogger(cmd, v.GetInt("verbosity")).WithValues("grammar", name),
	}
	switch p.format {
	case "text", "json", "table":
	default:
		return nil, errors.Newf("unknown format: %s", p.format)
	}

	opts := []ez.Option{ez.WithObserver(observe.NewLogger(p.logger))}
	if v.GetBool("trace") {
		p.recorder = &observe.Recorder{}
		opts = append(opts, ez.WithObserver(p.recorder))
	}
	if v.GetBool("stats") {
		p.registry = prometheus.NewRegistry()
		m, err := observe.NewMetrics(p.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ez.WithObserver(m))
	}

	p.runner, err = g.runner(opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "grammar %s", name)
	}
	return p, nil
}

func (p *parser) read(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(p.in)
	}
	return os.ReadFile(name)
}

func (p *parser) parseFile(ctx context.Context, name string) error {
	data, err := p.read(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	res, err := p.runner.Run(ctx, input.FromBytes(data))
	if err != nil {
		return err
	}
	if p.recorder != nil {
		p.printTrace(name)
	}
	value, err := p.grammar.value(res)
	if err != nil {
		return err
	}
	return p.print(name, res, value)
}

func (p *parser) print(name string, res *ez.Result, value any) error {
	switch p.format {
	case "json":
		enc := stdjson.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(value), "encode json")
	case "table":
		table := tablewriter.NewWriter(p.out)
		table.SetHeader([]string{"Name", "Value"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.AppendBulk([][]string{
			{"file", name},
			{"grammar", p.name},
			{"consumed", strconv.Itoa(res.Index)},
			{"furthest", strconv.Itoa(res.Furthest)},
			{"value", fmt.Sprint(value)},
		})
		table.Render()
		return nil
	default:
		_, err := fmt.Fprintln(p.out, value)
		return err
	}
}

func (p *parser) printTrace(name string) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Rule", "Kind", "Level", "Start", "End", "Result"})
	table.SetAutoFormatHeaders(false)
	table.SetCaption(true, name)
	for _, s := range p.recorder.Steps() {
		result := "failed"
		if s.Matched {
			result = "matched"
		}
		if s.InPredicate {
			result += " (lookahead)"
		}
		table.Append([]string{
			s.Rule, string(s.Kind), strconv.Itoa(s.Level),
			strconv.Itoa(s.Start), strconv.Itoa(s.End), result,
		})
	}
	table.Render()
}

// printStats prints the rule match counters gathered so far.
func (p *parser) printStats() error {
	families, err := p.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var rows [][]string
	for _, mf := range families {
		if mf.GetName() != "ez_rule_matches_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			rows = append(rows, []string{
				labels["kind"], labels["result"],
				strconv.FormatFloat(m.GetCounter().GetValue(), 'f', -1, 64),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Kind", "Result", "Count"})
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func (p *parser) watch(ctx context.Context, names []string) error {
	w, err := newChangedWatcher(watchDelay)
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()
	for _, name := range names {
		if name == "-" {
			continue
		}
		if err := w.Add(name); err != nil {
			return errors.Wrapf(err, "watch %s", name)
		}
	}

	p.logger.Info("watching for changes", "files", len(names))
	for {
		select {
		case events, ok := <-w.Events:
			if !ok {
				return errors.New("watcher events closed")
			}
			changed := map[string]bool{}
			for _, e := range events {
				p.logger.V(1).Info("got event", "event", e.String())
				changed[e.Name] = true
			}
			for _, name := range names {
				if !changed[name] {
					continue
				}
				if err := p.parseFile(ctx, name); err != nil {
					p.logger.Error(err, "parse failed", "file", name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher errors closed")
			}
			p.logger.Error(err, "receive error from watcher")
		case <-ctx.Done():
			p.logger.Info("exit watch for context done")
			return nil
		}
	}
}
