// Command newlistings fetches the OCC "New Listings" options report
// for the current month and prints the unique tickers activating
// within the last two days or in the future (US Eastern time).
//
// No arguments. The report goes to stdout; logs and warnings go to
// stderr. Exit code 1 on any unrecoverable error.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"occlistings/pkg/core/discovery"
	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/listings"
	"occlistings/pkg/core/render"
	"occlistings/pkg/core/resolve"
	"occlistings/pkg/core/settings"
	"occlistings/pkg/core/webclient"
)

func main() {
	// .env is optional; real environments set the variables directly.
	_ = godotenv.Load()

	logger := zap.Must(zap.NewProduction()).
		With(zap.String("run_id", uuid.NewString()))

	err := run(logger)
	if err != nil {
		logger.Error("run failed", zap.String("kind", faults.Kind(err)), zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := settings.Load(settings.DefaultPath)
	if err != nil {
		return err
	}
	zone, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := webclient.New(cfg, logger)

	conf, err := discovery.NewService(client, cfg, logger).LoadConfig(ctx)
	if err != nil {
		return err
	}

	submit, err := conf.SubmitEndpoint()
	if err != nil {
		return err
	}
	reportsURL, err := cfg.ResolveURL(submit.Endpoint.Prod)
	if err != nil {
		return err
	}

	yearControl, err := conf.LocateControl("report_year")
	if err != nil {
		return err
	}
	yearsPath, err := yearControl.EndpointPath()
	if err != nil {
		return err
	}
	yearsURL, err := cfg.ResolveURL(yearsPath)
	if err != nil {
		return err
	}

	now := time.Now().In(zone)
	targetYear, err := resolve.New(client, cfg, logger).TargetYear(ctx, yearsURL, now)
	if err != nil {
		return err
	}
	logger.Info("resolved report year", zap.Int("year", targetYear))

	params, err := resolve.BuildQueryParams(submit.Query, resolve.RuntimeValues{
		"report_type": cfg.ReportType,
		"report_year": strconv.Itoa(targetYear),
	})
	if err != nil {
		return err
	}

	locator := listings.NewLocator(client, cfg, logger)
	monthSlug := listings.MonthSlug(now)
	csvURL, err := locator.MonthLink(ctx, reportsURL, params, monthSlug)
	if err != nil {
		return err
	}
	logger.Info("located monthly report",
		zap.String("month", monthSlug), zap.String("url", csvURL))

	if tsYear, ok := listings.TimestampYear(csvURL); ok && tsYear != targetYear {
		logger.Warn("CSV timestamp year differs from selected year",
			zap.Int("timestamp_year", tsYear), zap.Int("selected_year", targetYear))
	}

	csvText, err := locator.FetchCSV(ctx, csvURL)
	if err != nil {
		return err
	}

	today := listings.DateOnly(now)
	byTicker := listings.ParseCSV(csvText, today)
	render.Report(os.Stdout, byTicker, csvURL, today)
	return nil
}
