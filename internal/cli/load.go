package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/ArnavTamrakar/Fight-predict/internal/loadtest"
)

const maxProblemsShown = 5

var loadCfg loadtest.Config

// loadCmd drives a running server with random matchups.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Send concurrent predictions to a running server and verify the answers",
	Long: `Fetch the fighter list from a running server, send random matchups to
/api/predict from several workers and check every response: known pairs must
return a consistent verdict, misspelled names must return 404 naming them.

Examples:
  fightctl load --url http://localhost:3000 --requests 2000 --workers 16

  # Mix in 10% misspelled names and cap the rate at 50 req/s
  fightctl load --unknown 0.1 --qps 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := loadtest.Run(cmd.Context(), loadCfg)
		if err != nil {
			return err
		}
		if err := writeLoadReport(cmd.OutOrStdout(), rep, useColor); err != nil {
			return err
		}
		if n := len(rep.Problems); n > 0 {
			return fmt.Errorf("%d of %d responses failed verification", n, rep.Requests)
		}
		return nil
	},
}

func writeLoadReport(w io.Writer, rep *loadtest.Report, colors bool) error {
	p := newPalette(colors)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	passed := strconv.Itoa(rep.Passed)
	if rep.Passed == rep.Requests {
		passed = p.green(passed)
	} else {
		passed = p.red(passed)
	}
	rows := [][]string{
		{"requests", strconv.Itoa(rep.Requests)},
		{"passed", passed},
		{"duration", rep.Duration.Round(time.Millisecond).String()},
		{"throughput", strconv.FormatFloat(rep.Throughput(), 'f', 1, 64) + "/s"},
		{"p50", rep.Percentile(0.50).Round(time.Microsecond).String()},
		{"p95", rep.Percentile(0.95).Round(time.Microsecond).String()},
		{"p99", rep.Percentile(0.99).Round(time.Microsecond).String()},
	}
	statuses := make([]int, 0, len(rep.ByStatus))
	for s := range rep.ByStatus {
		statuses = append(statuses, s)
	}
	slices.Sort(statuses)
	for _, s := range statuses {
		label := "status " + strconv.Itoa(s)
		if s == 0 {
			label = "transport error"
		}
		rows = append(rows, []string{label, strconv.Itoa(rep.ByStatus[s])})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for i, o := range rep.Problems {
		if i == maxProblemsShown {
			_, err := fmt.Fprintf(w, "... and %d more\n", len(rep.Problems)-maxProblemsShown)
			return err
		}
		line := fmt.Sprintf("problem: %q vs %q: %s", o.Matchup.Fighter1, o.Matchup.Fighter2, o.Problem)
		if _, err := fmt.Fprintln(w, p.yellow(line)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&loadCfg.BaseURL, "url", "http://localhost:3000", "base URL of the running server")
	f.IntVar(&loadCfg.Requests, "requests", loadtest.DefaultRequests, "number of predictions to send")
	f.IntVar(&loadCfg.Workers, "workers", loadtest.DefaultWorkers, "concurrent in-flight requests")
	f.DurationVar(&loadCfg.Timeout, "timeout", loadtest.DefaultTimeout, "per-request timeout")
	f.Float64Var(&loadCfg.QPS, "qps", 0, "overall request rate; 0 means unlimited")
	f.Float64Var(&loadCfg.UnknownRatio, "unknown", 0, "share of matchups with a misspelled first fighter")
	f.Uint64Var(&loadCfg.Seed, "seed", uint64(time.Now().UnixNano()), "seed for matchup generation")
}
