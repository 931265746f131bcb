package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/api/middleware"
	"github.com/ledgerline/statement-ingest/internal/jobs"
	"github.com/ledgerline/statement-ingest/internal/pipeline"
	"github.com/ledgerline/statement-ingest/internal/statements"
	"github.com/ledgerline/statement-ingest/internal/store"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 32 << 20

// StatementsHandler handles statement upload and deletion endpoints.
type StatementsHandler struct {
	processor *pipeline.Processor
	txStore   store.TransactionStore
	blobs     *statements.BlobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler. blobs and publisher
// may be nil, in which case async processing is unavailable and uploads are
// parsed inline.
func NewStatementsHandler(processor *pipeline.Processor, txStore store.TransactionStore, blobs *statements.BlobStore, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		processor: processor,
		txStore:   txStore,
		blobs:     blobs,
		publisher: publisher,
		log:       log,
	}
}

// UploadStatements handles POST /api/statements.
//
// Accepts one or more files under the "files" multipart field and parses them
// strictly one after another, returning a per-file result list. With
// ?async=true the files are staged to blob storage and a parse job is
// enqueued per file instead.
func (h *StatementsHandler) UploadStatements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one file is required")
		return
	}

	async := r.URL.Query().Get("async") == "true"
	if async && (h.blobs == nil || h.publisher == nil) {
		middleware.WriteError(w, http.StatusBadRequest, "Async processing is not configured")
		return
	}

	if async {
		h.enqueueUploads(w, r, files)
		return
	}

	results := make([]pipeline.Result, 0, len(files))
	for _, fh := range files {
		results = append(results, h.processFile(ctx, fh))
	}

	status := http.StatusOK
	for _, res := range results {
		if !res.Success {
			status = http.StatusMultiStatus
			break
		}
	}

	middleware.WriteJSON(w, status, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *StatementsHandler) processFile(ctx context.Context, fh *multipart.FileHeader) pipeline.Result {
	f, err := fh.Open()
	if err != nil {
		h.log.Error().Err(err).Str("file_name", fh.Filename).Msg("Failed to open upload")
		return pipeline.Result{Success: false, Error: "failed to read uploaded file"}
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		h.log.Error().Err(err).Str("file_name", fh.Filename).Msg("Failed to read upload")
		return pipeline.Result{Success: false, Error: "failed to read uploaded file"}
	}

	return h.processor.ProcessStatement(ctx, content, fh.Filename)
}

func (h *StatementsHandler) enqueueUploads(w http.ResponseWriter, r *http.Request, files []*multipart.FileHeader) {
	ctx := r.Context()

	type enqueued struct {
		JobID    string `json:"job_id"`
		FileName string `json:"file_name"`
		BlobURI  string `json:"blob_uri"`
		Status   string `json:"status"`
	}

	out := make([]enqueued, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}

		objectName := h.blobs.ObjectName(fh.Filename)
		blobURI, err := h.blobs.Upload(ctx, objectName, io.LimitReader(f, maxUploadBytes))
		f.Close()
		if err != nil {
			h.log.Error().Err(err).Str("file_name", fh.Filename).Msg("Failed to stage statement")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file")
			return
		}

		job := &jobs.ParseStatementJob{
			BlobURI:  blobURI,
			FileName: fh.Filename,
		}
		if err := h.publisher.PublishParseStatement(ctx, job); err != nil {
			h.log.Error().Err(err).Str("file_name", fh.Filename).Msg("Failed to enqueue parse job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parse job")
			return
		}

		h.log.Info().Str("job_id", job.JobID).Str("blob_uri", blobURI).Msg("Parse job enqueued")
		out = append(out, enqueued{
			JobID:    job.JobID,
			FileName: fh.Filename,
			BlobURI:  blobURI,
			Status:   string(job.Status),
		})
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobs":  out,
		"count": len(out),
	})
}

// DeleteStatement handles DELETE /api/statements/{id}.
func (h *StatementsHandler) DeleteStatement(w http.ResponseWriter, r *http.Request, statementID string) {
	ctx := r.Context()

	deleted, err := h.txStore.DeleteByStatement(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to delete statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete statement")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statement_id": statementID,
		"deleted":      deleted,
	})
}

// TransactionsHandler handles transaction query endpoints.
type TransactionsHandler struct {
	txStore store.TransactionStore
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(txStore store.TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{txStore: txStore, log: log}
}

// ListTransactions handles GET /api/transactions.
//
// With ?statement_id= the full upload batch is returned; otherwise the
// optional start_date/end_date range applies, defaulting to the last year.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if statementID := query.Get("statement_id"); statementID != "" {
		txs, err := h.txStore.ListByStatement(ctx, statementID)
		if err != nil {
			h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to list transactions")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"transactions": txs,
			"count":        len(txs),
		})
		return
	}

	start, end, err := parseDateRange(query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.txStore.QueryByDateRange(ctx, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// SummaryHandler handles the per-account aggregate endpoint.
type SummaryHandler struct {
	txStore store.TransactionStore
	log     zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(txStore store.TransactionStore, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{txStore: txStore, log: log}
}

type accountSummaryView struct {
	store.AccountSummary
	ExpenseShare float64 `json:"expense_share"`
}

// GetSummary handles GET /api/summary.
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	start, end, err := parseDateRange(query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := h.txStore.SummarizeByAccount(ctx, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to summarize accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to summarize accounts")
		return
	}

	var totalExpenses float64
	for _, s := range summaries {
		totalExpenses += s.Expenses
	}

	views := make([]accountSummaryView, 0, len(summaries))
	for _, s := range summaries {
		view := accountSummaryView{AccountSummary: s}
		if totalExpenses > 0 {
			view.ExpenseShare = s.Expenses / totalExpenses * 100
		}
		views = append(views, view)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":       views,
		"total_expenses": totalExpenses,
		"start_date":     start.Format("2006-01-02"),
		"end_date":       end.Format("2006-01-02"),
	})
}

// JobsHandler handles job polling endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// parseDateRange reads start/end query values, defaulting to the last year.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now()

	var err error
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidStartDate
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidEndDate
		}
	}
	return start, end, nil
}

var (
	errInvalidStartDate = errors.New("invalid start_date format, expected YYYY-MM-DD")
	errInvalidEndDate   = errors.New("invalid end_date format, expected YYYY-MM-DD")
)
