package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/assist"
	"github.com/ledgerline/statement-ingest/internal/logger"
	"github.com/ledgerline/statement-ingest/internal/pipeline"
	"github.com/ledgerline/statement-ingest/internal/statements"
	"github.com/ledgerline/statement-ingest/internal/store"
	"github.com/ledgerline/statement-ingest/internal/store/bigquery"
	"github.com/ledgerline/statement-ingest/internal/store/memory"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "file":
		runFile(log)
	case "blob":
		runBlob(log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Ingest CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  ingest <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  file      Parse and ingest a local statement file")
	fmt.Println("  blob      Parse and ingest a statement from GCS (gs:// URI)")
	fmt.Println("  upload    Stage a statement file to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'ingest <command> -h' for more information on a command.")
}

func runFile(log zerolog.Logger) {
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	path := fs.String("path", "", "path to the statement file")
	project := fs.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project; empty selects the in-memory store")
	dataset := fs.String("dataset", envOr("BQ_DATASET", "statement_ingest"), "BigQuery dataset")
	model := fs.String("model", "", "Gemini model for assisted extraction")
	fs.Parse(os.Args[2:])

	if *path == "" {
		log.Fatal().Msg("Error: -path is required")
	}

	content, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Failed to read statement file")
	}

	ingest(log, *project, *dataset, *model, content, filepath.Base(*path))
}

func runBlob(log zerolog.Logger) {
	fs := flag.NewFlagSet("blob", flag.ExitOnError)
	uri := fs.String("uri", "", "GCS URI of the statement (gs://bucket/object)")
	project := fs.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project; empty selects the in-memory store")
	dataset := fs.String("dataset", envOr("BQ_DATASET", "statement_ingest"), "BigQuery dataset")
	model := fs.String("model", "", "Gemini model for assisted extraction")
	fs.Parse(os.Args[2:])

	if *uri == "" {
		log.Fatal().Msg("Error: -uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	content, err := statements.Fetch(ctx, *uri)
	if err != nil {
		log.Fatal().Err(err).Str("uri", *uri).Msg("Failed to fetch statement")
	}

	ingest(log, *project, *dataset, *model, content, statements.FileNameFromURI(*uri))
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("path", "", "path to the statement file")
	bucket := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket (or set GCS_BUCKET env)")
	fs.Parse(os.Args[2:])

	if *path == "" || *bucket == "" {
		log.Fatal().Msg("Error: -path and -bucket are required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Failed to open statement file")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	blobs := statements.NewBlobStore(*bucket)
	objectName := blobs.ObjectName(filepath.Base(*path))
	uri, err := blobs.Upload(ctx, objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Println(uri)
}

func ingest(log zerolog.Logger, project, dataset, model string, content []byte, fileName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txStore, err := openStore(ctx, project, dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction store")
	}
	defer txStore.Close()

	var gen assist.Generator
	if g := assist.NewGeminiGenerator(model); g != nil {
		gen = g
	}

	processor := pipeline.NewProcessor(txStore, assist.NewExtractor(gen, log), log)
	result := processor.ProcessStatement(ctx, content, fileName)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
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
