package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/logger"
	"github.com/ledgerline/statement-ingest/internal/store"
)

// ExportStats reports what an export run did.
type ExportStats struct {
	Created  int
	Updated  int
	Archived int
	Total    int
}

// ExportStatement mirrors one upload batch into the Notion database:
// creates pages for new transactions, updates pages whose transaction still
// exists, and archives pages whose transaction is gone. With dryRun set it
// only logs what it would do.
func ExportStatement(ctx context.Context, txStore store.TransactionStore, svc Service, databaseID, statementID string, dryRun bool) (ExportStats, error) {
	txs, err := txStore.ListByStatement(ctx, statementID)
	if err != nil {
		return ExportStats{}, fmt.Errorf("ExportStatement: listing transactions: %w", err)
	}
	return export(ctx, svc, databaseID, txs, dryRun)
}

// ExportRange mirrors every transaction dated within [start, end].
func ExportRange(ctx context.Context, txStore store.TransactionStore, svc Service, databaseID string, start, end time.Time, dryRun bool) (ExportStats, error) {
	txs, err := txStore.QueryByDateRange(ctx, start, end)
	if err != nil {
		return ExportStats{}, fmt.Errorf("ExportRange: querying transactions: %w", err)
	}
	return export(ctx, svc, databaseID, txs, dryRun)
}

func export(ctx context.Context, svc Service, databaseID string, txs []*domain.Transaction, dryRun bool) (ExportStats, error) {
	log := logger.FromContext(ctx)
	stats := ExportStats{Total: len(txs)}

	valid := make(map[string]bool, len(txs))
	for _, tx := range txs {
		valid[tx.TransactionID] = true
	}

	pages, err := queryAllPages(ctx, svc, databaseID)
	if err != nil {
		return stats, fmt.Errorf("export: querying existing pages: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		txID := extractTransactionID(page)

		if txID != "" && valid[txID] {
			existing[txID] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("would archive stale page")
			stats.Archived++
			continue
		}
		if err := svc.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("failed to archive stale page")
			continue
		}
		stats.Archived++
	}

	for _, tx := range txs {
		pageID, found := existing[tx.TransactionID]

		if dryRun {
			if found {
				log.Info().Str("transaction_id", tx.TransactionID).Msg("would update page")
				stats.Updated++
			} else {
				log.Info().Str("transaction_id", tx.TransactionID).Msg("would create page")
				stats.Created++
			}
			continue
		}

		props := TransactionToProperties(tx)
		if found {
			if _, err := svc.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to update page")
				continue
			}
			stats.Updated++
		} else {
			if _, err := svc.CreatePage(ctx, databaseID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to create page")
				continue
			}
			stats.Created++
		}
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("total", stats.Total).
		Msg("notion export completed")

	return stats, nil
}

// queryAllPages walks the database with cursor pagination.
func queryAllPages(ctx context.Context, svc Service, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}
