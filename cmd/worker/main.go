package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerline/statement-ingest/internal/assist"
	"github.com/ledgerline/statement-ingest/internal/jobs"
	"github.com/ledgerline/statement-ingest/internal/jobs/inmemory"
	"github.com/ledgerline/statement-ingest/internal/logger"
	"github.com/ledgerline/statement-ingest/internal/pipeline"
	"github.com/ledgerline/statement-ingest/internal/statements"
	"github.com/ledgerline/statement-ingest/internal/store"
	"github.com/ledgerline/statement-ingest/internal/store/bigquery"
	"github.com/ledgerline/statement-ingest/internal/store/memory"
)

func main() {
	var (
		project = flag.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project for BigQuery persistence; empty selects the in-memory store")
		dataset = flag.String("dataset", envOr("BQ_DATASET", "statement_ingest"), "BigQuery dataset")
		model   = flag.String("model", "", "Gemini model for assisted extraction (default "+assist.DefaultModelName+")")
		workers = flag.Int("workers", 1, "concurrent job workers; 1 keeps statement processing sequential")
	)
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	txStore, err := openStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction store")
	}
	defer txStore.Close()

	var gen assist.Generator
	if g := assist.NewGeminiGenerator(*model); g != nil {
		gen = g
	} else {
		log.Warn().Msg("No Gemini API key configured, assisted extraction disabled")
	}

	processor := pipeline.NewProcessor(txStore, assist.NewExtractor(gen, log), log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("blob_uri", parseJob.BlobURI).
			Msg("Processing parse job")

		content, err := statements.Fetch(ctx, parseJob.BlobURI)
		if err != nil {
			log.Error().Err(err).Str("job_id", parseJob.JobID).Msg("Failed to fetch statement")
			return err
		}

		fileName := parseJob.FileName
		if fileName == "" {
			fileName = statements.FileNameFromURI(parseJob.BlobURI)
		}

		result := processor.ProcessStatement(ctx, content, fileName)
		if !result.Success {
			log.Error().
				Str("job_id", parseJob.JobID).
				Str("error", result.Error).
				Msg("Statement processing failed")
			return fmt.Errorf("processing statement: %s", result.Error)
		}

		parseJob.StatementID = result.StatementID
		parseJob.TransactionCount = result.TransactionCount

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("statement_id", result.StatementID).
			Int("transactions", result.TransactionCount).
			Msg("Parse job completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}

func openStore(ctx context.Context, project, dataset string) (store.TransactionStore, error) {
	if project == "" {
		return memory.NewStore(), nil
	}
	return bigquery.NewRepository(ctx, project, dataset)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
