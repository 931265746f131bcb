package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ledgerline/statement-ingest/internal/api/handlers"
	"github.com/ledgerline/statement-ingest/internal/api/middleware"
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
		port    = flag.String("port", "8080", "HTTP server port")
		bucket  = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for staged statement uploads (or set GCS_BUCKET env)")
		project = flag.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project for BigQuery persistence; empty selects the in-memory store")
		dataset = flag.String("dataset", envOr("BQ_DATASET", "statement_ingest"), "BigQuery dataset")
		model   = flag.String("model", "", "Gemini model for assisted extraction (default "+assist.DefaultModelName+")")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	txStore, err := openStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction store")
	}
	defer txStore.Close()

	if *project == "" {
		log.Warn().Msg("No GCP project configured, using in-memory transaction store")
	}

	var gen assist.Generator
	if g := assist.NewGeminiGenerator(*model); g != nil {
		gen = g
		log.Info().Msg("Assisted extraction enabled")
	} else {
		log.Warn().Msg("No Gemini API key configured, assisted extraction disabled")
	}

	extractor := assist.NewExtractor(gen, log)
	processor := pipeline.NewProcessor(txStore, extractor, log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 1, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
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
			return fmt.Errorf("fetching statement: %w", err)
		}

		fileName := parseJob.FileName
		if fileName == "" {
			fileName = statements.FileNameFromURI(parseJob.BlobURI)
		}

		result := processor.ProcessStatement(ctx, content, fileName)
		if !result.Success {
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

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	var blobs *statements.BlobStore
	if *bucket != "" {
		blobs = statements.NewBlobStore(*bucket)
	} else {
		log.Warn().Msg("No GCS bucket configured, async uploads disabled")
	}

	statementsHandler := handlers.NewStatementsHandler(processor, txStore, blobs, jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(txStore, log)
	summaryHandler := handlers.NewSummaryHandler(txStore, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.UploadStatements(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			statementID := strings.TrimPrefix(r.URL.Path, "/api/statements/")
			if statementID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Statement ID is required")
				return
			}
			statementsHandler.DeleteStatement(w, r, statementID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.GetSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// Synchronous uploads may wait on one assisted-extraction call per file.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// openStore selects BigQuery when a project is configured, otherwise the
// in-memory store for local development.
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
