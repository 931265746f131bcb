package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/store/memory"
)

type fakeService struct {
	pages    []notionapi.Page
	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
}

func newFakeService(pages ...notionapi.Page) *fakeService {
	return &fakeService{
		pages:   pages,
		updated: make(map[string]notionapi.Properties),
	}
}

func (f *fakeService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("new-page")}, nil
}

func (f *fakeService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.updated[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeService) ArchivePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func (f *fakeService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{
		Results: f.pages,
		HasMore: false,
	}, nil
}

func pageWithTransactionID(pageID, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{PlainText: txID},
				},
			},
		},
	}
}

func seedStatement(t *testing.T, txStore *memory.Store, statementID string, txs ...domain.Transaction) []*domain.Transaction {
	t.Helper()
	batch := make([]*domain.Transaction, 0, len(txs))
	for i := range txs {
		tx := txs[i]
		tx.StatementID = statementID
		batch = append(batch, &tx)
	}
	if err := txStore.InsertTransactions(context.Background(), batch); err != nil {
		t.Fatalf("InsertTransactions: %v", err)
	}
	return batch
}

func TestExportStatementCreatesNewPages(t *testing.T) {
	txStore := memory.NewStore()
	seedStatement(t, txStore, "stmt-1",
		domain.Transaction{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "COFFEE SHOP", Amount: -4.50, AccountID: "123456789012"},
		domain.Transaction{Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Description: "SALARY", Amount: 2500, AccountID: "123456789012"},
	)

	svc := newFakeService()
	stats, err := ExportStatement(context.Background(), txStore, svc, "db-1", "stmt-1", false)
	if err != nil {
		t.Fatalf("ExportStatement: %v", err)
	}

	if stats.Created != 2 || stats.Updated != 0 || stats.Archived != 0 {
		t.Errorf("stats = %+v, want 2 created", stats)
	}
	if len(svc.created) != 2 {
		t.Fatalf("created %d pages, want 2", len(svc.created))
	}
}

func TestExportStatementUpdatesAndArchives(t *testing.T) {
	txStore := memory.NewStore()
	batch := seedStatement(t, txStore, "stmt-1",
		domain.Transaction{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "COFFEE SHOP", Amount: -4.50, AccountID: "acct"},
	)

	svc := newFakeService(
		pageWithTransactionID("page-live", batch[0].TransactionID),
		pageWithTransactionID("page-stale", "gone-tx"),
	)

	stats, err := ExportStatement(context.Background(), txStore, svc, "db-1", "stmt-1", false)
	if err != nil {
		t.Fatalf("ExportStatement: %v", err)
	}

	if stats.Updated != 1 {
		t.Errorf("Updated = %d, want 1", stats.Updated)
	}
	if stats.Archived != 1 {
		t.Errorf("Archived = %d, want 1", stats.Archived)
	}
	if len(svc.archived) != 1 || svc.archived[0] != "page-stale" {
		t.Errorf("archived = %v, want [page-stale]", svc.archived)
	}
	if _, ok := svc.updated["page-live"]; !ok {
		t.Errorf("expected page-live to be updated, got %v", svc.updated)
	}
}

func TestExportStatementDryRunTouchesNothing(t *testing.T) {
	txStore := memory.NewStore()
	seedStatement(t, txStore, "stmt-1",
		domain.Transaction{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "COFFEE SHOP", Amount: -4.50, AccountID: "acct"},
	)

	svc := newFakeService(pageWithTransactionID("page-stale", "gone-tx"))

	stats, err := ExportStatement(context.Background(), txStore, svc, "db-1", "stmt-1", true)
	if err != nil {
		t.Fatalf("ExportStatement: %v", err)
	}

	if stats.Created != 1 || stats.Archived != 1 {
		t.Errorf("stats = %+v, want 1 created and 1 archived", stats)
	}
	if len(svc.created) != 0 || len(svc.archived) != 0 || len(svc.updated) != 0 {
		t.Errorf("dry run performed writes: created=%d archived=%d updated=%d",
			len(svc.created), len(svc.archived), len(svc.updated))
	}
}

func TestTransactionToProperties(t *testing.T) {
	category := "groceries"
	tx := &domain.Transaction{
		TransactionID: "tx-1",
		StatementID:   "stmt-1",
		Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Description:   "COFFEE SHOP",
		Amount:        -4.50,
		CategoryID:    &category,
		AccountID:     "123456789012",
	}

	props := TransactionToProperties(tx)

	title, ok := props["Description"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "COFFEE SHOP" {
		t.Errorf("Description property = %#v", props["Description"])
	}
	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != -4.50 {
		t.Errorf("Amount property = %#v", props["Amount"])
	}
	direction, ok := props["Direction"].(notionapi.SelectProperty)
	if !ok || direction.Select.Name != "Expense" {
		t.Errorf("Direction property = %#v", props["Direction"])
	}
	cat, ok := props["Category"].(notionapi.SelectProperty)
	if !ok || cat.Select.Name != "groceries" {
		t.Errorf("Category property = %#v", props["Category"])
	}
	txID, ok := props["Transaction ID"].(notionapi.RichTextProperty)
	if !ok || txID.RichText[0].Text.Content != "tx-1" {
		t.Errorf("Transaction ID property = %#v", props["Transaction ID"])
	}
}

func TestDirectionName(t *testing.T) {
	if got := directionName(-1); got != "Expense" {
		t.Errorf("directionName(-1) = %q, want Expense", got)
	}
	if got := directionName(10); got != "Income" {
		t.Errorf("directionName(10) = %q, want Income", got)
	}
}
