package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"spot-analytics/internal/analysis"
	"spot-analytics/internal/app"
	"spot-analytics/internal/config"
	"spot-analytics/internal/data"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/logging"
	"spot-analytics/internal/model"
	"spot-analytics/internal/overlay"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "download":
		os.Exit(cmdDownload(os.Args[2:]))
	case "indicators":
		os.Exit(cmdIndicators(os.Args[2:]))
	case "stats":
		os.Exit(cmdStats(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli download   --config config.yaml [--start 2015-01-01] [--end 2024-12-31] [--snapshot 600.json]")
	fmt.Println("  cli indicators --config config.yaml [--overlays sma:168,sma:720,bollinger,spread] [--out results/overlays.csv]")
	fmt.Println("  cli stats      --config config.yaml [--timeframe 1M | --start ... --end ...]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - download fetches in 30-day chunks, retries transient failures and rewrites the CSV store")
	fmt.Println("  - a run with missing hours still writes the store and reports status \"has gaps\"")
	fmt.Println("  - indicators and stats read the CSV store; they do not need an API key")
}

func cmdDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional; env and defaults otherwise)")
	start := fs.String("start", "", "First date YYYY-MM-DD (default fetch.start_date)")
	end := fs.String("end", "", "Last date YYYY-MM-DD (default fetch.end_date or today)")
	indicatorID := fs.Int("indicator", 0, "Indicator id (default: every configured indicator)")
	outPath := fs.String("out", "", "Output CSV path (default storage.output_path)")
	snapshot := fs.String("snapshot", "", "Read a saved /indicators response instead of calling the API")
	concurrency := fs.Int("concurrency", 0, "Parallel chunk requests (default fetch.concurrency)")
	asJSON := fs.Bool("json", false, "Print run summaries as JSON")
	_ = fs.Parse(args)

	var cfg *config.Config
	var err error
	if *snapshot != "" {
		// offline runs need no API key
		cfg, err = config.LoadUnchecked(*cfgPath)
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *start != "" {
		cfg.Fetch.StartDate = *start
	}
	if *end != "" {
		cfg.Fetch.EndDate = *end
	}
	if *concurrency > 0 {
		cfg.Fetch.Concurrency = *concurrency
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	startDate, err := cfg.StartDate()
	if err != nil {
		logger.Error("invalid start date", zap.Error(err))
		return 2
	}
	endDate, err := cfg.EndDate(time.Now())
	if err != nil {
		logger.Error("invalid end date", zap.Error(err))
		return 2
	}

	var source ingest.IndicatorSource = app.NewClient(cfg, logger, nil)
	if *snapshot != "" {
		source, err = data.NewSnapshotSource(*snapshot, cfg.Location())
		if err != nil {
			logger.Error("load snapshot", zap.Error(err))
			return 1
		}
	}
	pipeline, err := app.NewPipeline(cfg, source, logger, nil)
	if err != nil {
		logger.Error("build pipeline", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := cfg.ESIOS.IndicatorIDs
	switch {
	case *indicatorID != 0:
		ids = []int{*indicatorID}
	case *snapshot != "":
		ids = []int{cfg.PrimaryIndicator()}
	}

	code := 0
	for _, id := range ids {
		out := cfg.OutputPathFor(id)
		if *outPath != "" && len(ids) == 1 {
			out = *outPath
		}

		_, summary, err := pipeline.Run(ctx, id, startDate, endDate, out)
		if summary != nil {
			printSummary(summary, *asJSON)
		}
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted; the store was not modified")
			return 130
		case errors.Is(err, ingest.ErrNoData):
			logger.Error("no data ingested; the store was not modified", zap.Int("indicator", id))
			code = 1
		default:
			logger.Error("download failed", zap.Int("indicator", id), zap.Error(err))
			code = 1
		}
	}
	return code
}

func printSummary(s *ingest.RunSummary, asJSON bool) {
	if asJSON {
		raw, err := json.MarshalIndent(s, "", "  ")
		if err == nil {
			fmt.Println(string(raw))
		}
		return
	}
	s.Print(os.Stdout)
}

func cmdIndicators(args []string) int {
	fs := flag.NewFlagSet("indicators", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	dataPath := fs.String("data", "", "Price store CSV (default storage.output_path)")
	overlays := fs.String("overlays", "", "Comma-separated overlays, e.g. sma:168,ema:24,bollinger:20:2,spread (default: sma:168,sma:720,bollinger,spread)")
	outPath := fs.String("out", "", "Report CSV path (default storage.report_path or results/overlays.csv)")
	rf := rangeFlags(fs)
	_ = fs.Parse(args)

	cfg, ts, code := loadStore(*cfgPath, *dataPath)
	if ts == nil {
		return code
	}

	specs, err := overlay.ParseSpecs(*overlays)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	from, to, err := rf.resolve(ts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sub := ts.Between(from, to)
	if sub.Len() == 0 {
		fmt.Printf("no observations between %s and %s\n", from.Format(model.DateLayout), to.Format(model.DateLayout))
		return 1
	}

	res, err := overlay.New(nil).Run(sub, specs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out := *outPath
	if out == "" {
		out = cfg.Storage.ReportPath
	}
	if out == "" {
		out = "results/overlays.csv"
	}
	if err := overlay.WriteReportCSV(out, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("Wrote %d rows to %s\n", res.Series.Len(), out)
	for _, c := range res.Columns {
		fmt.Printf("  %-16s %d defined\n", c.Name, c.Values.CountDefined())
	}
	return 0
}

func cmdStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	dataPath := fs.String("data", "", "Price store CSV (default storage.output_path)")
	rf := rangeFlags(fs)
	_ = fs.Parse(args)

	cfg, ts, code := loadStore(*cfgPath, *dataPath)
	if ts == nil {
		return code
	}
	from, to, err := rf.resolve(ts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	sub := ts.Between(from, to)

	summary, err := analysis.ComputeSummary(sub)
	if err != nil {
		fmt.Printf("no observations between %s and %s\n", from.Format(model.DateLayout), to.Format(model.DateLayout))
		return 1
	}

	fmt.Printf("range      %s .. %s\n", summary.StartDate.Format(model.DateLayout), summary.EndDate.Format(model.DateLayout))
	fmt.Printf("count      %d\n", summary.Count)
	fmt.Printf("min/max    %.2f / %.2f\n", summary.Min, summary.Max)
	fmt.Printf("mean       %.2f\n", summary.Mean)
	fmt.Printf("std        %s\n", fmtIndicator(summary.Std))
	fmt.Printf("p05/p95    %.2f / %.2f (spread %.2f)\n", summary.P05, summary.P95, summary.SpreadP95P05)
	fmt.Println("")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "hour\tbucket\tsamples\tmean\trank")
	for _, h := range analysis.ComputeHourlyProfile(sub) {
		fmt.Fprintf(tw, "%02d\t%s\t%d\t%.2f\t%d\n", h.Hour, h.Bucket, h.Samples, h.Mean, h.Rank)
	}
	tw.Flush()
	fmt.Println("")

	cov := ingest.Coverage(sub, from, to, cfg.Location())
	fmt.Printf("coverage   %d of %d expected hours\n", cov.Present, cov.Expected)
	for i, g := range cov.Gaps {
		if i == 20 {
			fmt.Printf("  ... and %d more gaps\n", len(cov.Gaps)-i)
			break
		}
		fmt.Printf("  missing %s\n", g)
	}
	return 0
}

// loadStore loads the config without requiring an API key and reads the price store.
func loadStore(cfgPath, dataPath string) (*config.Config, *model.TimeSeries, int) {
	cfg, err := config.LoadUnchecked(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, 2
	}
	path := dataPath
	if path == "" {
		path = cfg.Storage.OutputPath
	}
	ts, err := data.ReadSeriesCSV(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, 1
	}
	if ts.Len() == 0 {
		fmt.Fprintf(os.Stderr, "%s holds no observations\n", path)
		return nil, nil, 1
	}
	return cfg, ts, 0
}

type rangeOpts struct {
	start, end, timeframe *string
}

func rangeFlags(fs *flag.FlagSet) rangeOpts {
	return rangeOpts{
		start:     fs.String("start", "", "First date YYYY-MM-DD (default: first date in the store)"),
		end:       fs.String("end", "", "Last date YYYY-MM-DD (default: last date in the store)"),
		timeframe: fs.String("timeframe", "", "Preset ending at the last date: 1D, 1S, 1M, 3M, 6M, 1A, MAX"),
	}
}

func (r rangeOpts) resolve(ts *model.TimeSeries) (from, to time.Time, err error) {
	if *r.timeframe != "" {
		return analysis.ResolveTimeframe(ts, *r.timeframe)
	}
	first, _ := ts.First()
	last, _ := ts.Last()
	from, to = first.Date, last.Date
	if *r.start != "" {
		if from, err = model.ParseDate(*r.start); err != nil {
			return from, to, err
		}
	}
	if *r.end != "" {
		if to, err = model.ParseDate(*r.end); err != nil {
			return from, to, err
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--end %s is before --start %s", to.Format(model.DateLayout), from.Format(model.DateLayout))
	}
	return from, to, nil
}

func fmtIndicator(v model.IndicatorValue) string {
	if !v.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(v.Value, 'f', 2, 64)
}
