package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/monitor/internal/config"
	"github.com/Guliveer/vitalis/monitor/internal/models"
	"github.com/Guliveer/vitalis/monitor/internal/scheduler"
)

var (
	collectSamples  int
	collectInterval time.Duration
	collectQueries  []string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a collection session and print CSV rows",
	Long: `Run the configured queries once per interval and print one CSV row per
query and round: round, timestamp, module, purpose, then one column per
selected field.

Queries come from the collection section of the config file, or from
--query MODULE/PURPOSE[:FIELD] (repeatable):
  monitor collect --query "NET/ESTAT:--nic=eth0 --fields=errs --fields=util"
  monitor collect --samples 0   # until interrupted`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().IntVar(&collectSamples, "samples", 0, "Number of rounds (0 = until interrupted; default from config)")
	collectCmd.Flags().DurationVar(&collectInterval, "interval", 0, "Time between rounds (default from config)")
	collectCmd.Flags().StringArrayVar(&collectQueries, "query", nil, "Query as MODULE/PURPOSE[:FIELD]")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := state.cfg

	queries, err := sessionQueries(cfg, collectQueries)
	if err != nil {
		return err
	}

	samples := cfg.Collection.Samples
	if cmd.Flags().Changed("samples") {
		samples = collectSamples
	}
	interval := cfg.Collection.Interval.Duration
	if cmd.Flags().Changed("interval") {
		interval = collectInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := csv.NewWriter(os.Stdout)
	_ = w.Write(csvHeader)
	w.Flush()

	sched := scheduler.New(state.svc, scheduler.Options{
		Queries:  queries,
		Interval: interval,
		Samples:  samples,
	}, state.logger)
	sched.OnSample(func(s models.Sample) {
		for _, row := range csvRows(s) {
			_ = w.Write(row)
		}
		w.Flush()
	})

	state.logger.Info("Collection started",
		zap.Int("queries", len(queries)),
		zap.Int("samples", samples),
		zap.Duration("interval", interval))
	sched.Start(ctx)
	return w.Error()
}

// sessionQueries returns the queries given on the command line, falling back
// to the config file and then to NET/ESTAT errs and util on every interface.
func sessionQueries(cfg *config.Config, flags []string) ([]models.Query, error) {
	if len(flags) > 0 {
		queries := make([]models.Query, 0, len(flags))
		for _, f := range flags {
			q, err := parseQueryFlag(f)
			if err != nil {
				return nil, err
			}
			queries = append(queries, q)
		}
		return queries, nil
	}

	if len(cfg.Collection.Queries) > 0 {
		queries := make([]models.Query, 0, len(cfg.Collection.Queries))
		for _, q := range cfg.Collection.Queries {
			queries = append(queries, models.Query{
				Module:  q.Module,
				Purpose: q.Purpose,
				Field:   q.Field,
				Para:    q.Para,
			})
		}
		return queries, nil
	}

	return []models.Query{{
		Module:  "NET",
		Purpose: "ESTAT",
		Field:   "--nic= --fields=nic --fields=errs --fields=util",
	}}, nil
}

// parseQueryFlag parses MODULE/PURPOSE[:FIELD].
func parseQueryFlag(s string) (models.Query, error) {
	id, field, _ := strings.Cut(s, ":")
	module, purpose, ok := strings.Cut(id, "/")
	if !ok || module == "" || purpose == "" {
		return models.Query{}, fmt.Errorf("invalid --query %q: want MODULE/PURPOSE[:FIELD]", s)
	}
	return models.Query{
		Module:  strings.ToUpper(module),
		Purpose: strings.ToUpper(purpose),
		Field:   field,
	}, nil
}

var csvHeader = []string{"round", "timestamp", "module", "purpose", "value"}

// csvRows renders one row per successful result. The decoded value stays a
// single space-separated column so every row matches csvHeader.
func csvRows(s models.Sample) [][]string {
	ts := s.Timestamp.Format(time.RFC3339)
	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		rows = append(rows, []string{strconv.Itoa(s.Round), ts, r.Module, r.Purpose, strings.TrimSpace(r.Value)})
	}
	return rows
}
