package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerline/statement-ingest/internal/assist"
	"github.com/ledgerline/statement-ingest/internal/jobs"
	"github.com/ledgerline/statement-ingest/internal/jobs/inmemory"
	"github.com/ledgerline/statement-ingest/internal/logger"
	"github.com/ledgerline/statement-ingest/internal/pipeline"
	"github.com/ledgerline/statement-ingest/internal/store/memory"
)

const sampleStatement = `Account Number,Date,Description,Amount,Type
123456789012,01/15/2024,COFFEE SHOP,4.50,Debit
123456789012,01/16/2024,SALARY,2500.00,Credit
`

func newTestHandler(t *testing.T) (*StatementsHandler, *memory.Store) {
	t.Helper()
	log := logger.NewWithWriter(io.Discard)
	txStore := memory.NewStore()
	processor := pipeline.NewProcessor(txStore, assist.NewExtractor(nil, log), log)
	return NewStatementsHandler(processor, txStore, nil, nil, log), txStore
}

func multipartUpload(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/statements", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadStatements(t *testing.T) {
	h, txStore := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UploadStatements(rec, multipartUpload(t, "statement.csv", sampleStatement))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Results []pipeline.Result `json:"results"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Fatalf("count = %d, results = %d, want 1 each", resp.Count, len(resp.Results))
	}
	res := resp.Results[0]
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Error)
	}
	if res.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", res.TransactionCount)
	}

	txs, err := txStore.ListByStatement(context.Background(), res.StatementID)
	if err != nil {
		t.Fatalf("ListByStatement: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("stored %d transactions, want 2", len(txs))
	}
}

func TestUploadStatementsNoFiles(t *testing.T) {
	h, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/statements", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.UploadStatements(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadStatementsAsyncUnconfigured(t *testing.T) {
	h, _ := newTestHandler(t)

	req := multipartUpload(t, "statement.csv", sampleStatement)
	req.URL.RawQuery = "async=true"

	rec := httptest.NewRecorder()
	h.UploadStatements(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadStatementsPartialFailure(t *testing.T) {
	h, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	good, _ := mw.CreateFormFile("files", "good.csv")
	io.WriteString(good, sampleStatement)
	empty, _ := mw.CreateFormFile("files", "empty.csv")
	io.WriteString(empty, "")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/statements", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.UploadStatements(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMultiStatus)
	}

	var resp struct {
		Results []pipeline.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if !resp.Results[0].Success || resp.Results[1].Success {
		t.Errorf("expected first success and second failure, got %+v", resp.Results)
	}
}

func TestDeleteStatement(t *testing.T) {
	h, txStore := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UploadStatements(rec, multipartUpload(t, "statement.csv", sampleStatement))

	var resp struct {
		Results []pipeline.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}
	statementID := resp.Results[0].StatementID

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/statements/"+statementID, nil)
	h.DeleteStatement(rec, req, statementID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var deleted struct {
		StatementID string `json:"statement_id"`
		Deleted     int64  `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decoding delete response: %v", err)
	}
	if deleted.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted.Deleted)
	}

	txs, err := txStore.ListByStatement(context.Background(), statementID)
	if err != nil {
		t.Fatalf("ListByStatement: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions after delete, got %d", len(txs))
	}
}

func TestListTransactionsByStatement(t *testing.T) {
	sh, txStore := newTestHandler(t)

	rec := httptest.NewRecorder()
	sh.UploadStatements(rec, multipartUpload(t, "statement.csv", sampleStatement))

	var resp struct {
		Results []pipeline.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}

	th := NewTransactionsHandler(txStore, logger.NewWithWriter(io.Discard))
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions?statement_id="+resp.Results[0].StatementID, nil)
	th.ListTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var listResp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if listResp.Count != 2 {
		t.Errorf("count = %d, want 2", listResp.Count)
	}
}

func TestListTransactionsBadDate(t *testing.T) {
	_, txStore := newTestHandler(t)
	th := NewTransactionsHandler(txStore, logger.NewWithWriter(io.Discard))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions?start_date=15-01-2024", nil)
	th.ListTransactions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSummary(t *testing.T) {
	sh, txStore := newTestHandler(t)

	rec := httptest.NewRecorder()
	sh.UploadStatements(rec, multipartUpload(t, "statement.csv", sampleStatement))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	h := NewSummaryHandler(txStore, logger.NewWithWriter(io.Discard))
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/summary?start_date=2024-01-01&end_date=2024-12-31", nil)
	h.GetSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Accounts []struct {
			AccountID    string  `json:"account_id"`
			Income       float64 `json:"income"`
			Expenses     float64 `json:"expenses"`
			ExpenseShare float64 `json:"expense_share"`
		} `json:"accounts"`
		TotalExpenses float64 `json:"total_expenses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if len(resp.Accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(resp.Accounts))
	}
	acc := resp.Accounts[0]
	if acc.AccountID != "123456789012" {
		t.Errorf("AccountID = %q, want 123456789012", acc.AccountID)
	}
	if acc.Income != 2500.00 {
		t.Errorf("Income = %v, want 2500", acc.Income)
	}
	if acc.Expenses != 4.50 {
		t.Errorf("Expenses = %v, want 4.5", acc.Expenses)
	}
	if acc.ExpenseShare != 100 {
		t.Errorf("ExpenseShare = %v, want 100", acc.ExpenseShare)
	}
}

func TestJobsHandler(t *testing.T) {
	jobStore := inmemory.NewStore()
	h := NewJobsHandler(jobStore, logger.NewWithWriter(io.Discard))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)
	h.GetJob(rec, req, "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	job := &jobs.ParseStatementJob{
		JobID:     "job-1",
		BlobURI:   "gs://bucket/statements/a.csv",
		FileName:  "a.csv",
		Status:    jobs.JobStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := jobStore.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	h.GetJob(rec, req, "job-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil)
	h.ListJobs(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var listResp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decoding jobs list: %v", err)
	}
	if listResp.Count != 1 {
		t.Errorf("count = %d, want 1", listResp.Count)
	}
}
