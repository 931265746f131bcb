package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ledgerline/statement-ingest/internal/logger"
	"github.com/ledgerline/statement-ingest/internal/notion"
	"github.com/ledgerline/statement-ingest/internal/store/bigquery"
)

func main() {
	log := logger.New()

	statementID := flag.String("statement", "", "Statement ID to export (mutually exclusive with date range)")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_API_TOKEN"), "Notion API token (or set NOTION_API_TOKEN env)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required)")
	project := flag.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project (required)")
	dataset := flag.String("dataset", envOr("BQ_DATASET", "statement_ingest"), "BigQuery dataset")
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to Notion")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	byRange := *startDateStr != "" || *endDateStr != ""
	if *statementID == "" && !byRange {
		log.Fatal().Msg("Error: either --statement or --start-date/--end-date is required")
	}
	if *statementID != "" && byRange {
		log.Fatal().Msg("Error: --statement and a date range are mutually exclusive")
	}

	var startDate, endDate time.Time
	var err error
	if byRange {
		startDate, err = time.Parse("2006-01-02", *startDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
		endDate, err = time.Parse("2006-01-02", *endDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
		if endDate.Before(startDate) {
			log.Fatal().
				Time("start_date", startDate).
				Time("end_date", endDate).
				Msg("Error: end-date must be after start-date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := bigquery.NewRepository(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	client := notion.NewClient(*notionToken)

	var stats notion.ExportStats
	if *statementID != "" {
		stats, err = notion.ExportStatement(ctx, repo, client, *notionDBID, *statementID, *dryRun)
	} else {
		stats, err = notion.ExportRange(ctx, repo, client, *notionDBID, startDate, endDate, *dryRun)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Export completed: %d created, %d updated, %d archived (%d total).\n",
		stats.Created, stats.Updated, stats.Archived, stats.Total)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
