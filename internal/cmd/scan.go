package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-metrics"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lguibr/switchboard"
	"github.com/lguibr/switchboard/internal/components"
	"github.com/lguibr/switchboard/internal/scan"
)

func newScanCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan code and writing samples and print a report",
		Long: `Scan reads dir (default: the working directory). Every subdirectory of
the code root is treated as one language and every file inside it is split
into indented lines. Files directly inside the writing directory are
collected as prose samples; pass --writing "" to skip them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runScan(cmd, dir)
		},
	}

	f := c.Flags()
	f.String("root", "", "code root relative to dir (default from config: code)")
	f.String("writing", "", "writing directory relative to dir (default from config: writing)")
	f.Int("workers", 0, "language directories scanned concurrently")
	f.String("format", "", "report format: yaml or json")
	f.Duration("poll-interval", 0, "async-check backoff of the run loop")
	f.Bool("metrics", false, "collect runtime metrics and print them to stderr")
	return c
}

func (a *app) runScan(cmd *cobra.Command, dir string) error {
	sc := a.cfg.Scan
	opts := []switchboard.Option{
		switchboard.WithPollInterval(a.cfg.Runtime.PollInterval),
		switchboard.WithMetricLabels([]metrics.Label{{Name: "command", Value: "scan"}}),
	}

	var sink *metrics.InmemSink
	if a.cfg.Metrics.Enabled {
		sink = metrics.NewInmemSink(a.cfg.Metrics.Interval, a.cfg.Metrics.Retain)
		sig := metrics.DefaultInmemSignal(sink)
		defer sig.Stop()
		opts = append(opts, switchboard.WithMetricSink(sink))
	}

	tree, err := scan.NewOSTree(dir)
	if err != nil {
		return err
	}
	report, err := components.RunReport(tree, components.ReportOptions{
		CodeRoot:   sc.Root,
		WritingDir: sc.Writing,
		Workers:    sc.Workers,
	}, a.logger, opts...)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	if err := writeReport(cmd.OutOrStdout(), sc.Format, report); err != nil {
		return err
	}
	if sink != nil {
		writeMetrics(cmd.ErrOrStderr(), sink)
	}
	return nil
}

func writeReport(w io.Writer, format string, report components.Report) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}
}

// writeMetrics prints the counters of every retained interval.
func writeMetrics(w io.Writer, sink *metrics.InmemSink) {
	totals := make(map[string]int)
	for _, interval := range sink.Data() {
		for name, v := range interval.Counters {
			if v.AggregateSample != nil {
				totals[name] += v.Count
			}
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %d\n", name, totals[name])
	}
}
