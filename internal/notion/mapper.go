package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

// TransactionToProperties converts a normalized transaction into the property
// set of the Notion transactions database. The Transaction ID rich-text
// property is the idempotency key the exporter matches on.
func TransactionToProperties(tx *domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Description,
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						tx.Date.Year(), tx.Date.Month(), tx.Date.Day(),
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Transaction ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.TransactionID,
					},
				},
			},
		},
	}

	if tx.AccountID != "" {
		props["Account"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.AccountID,
			},
		}
	}

	if tx.StatementID != "" {
		props["Statement ID"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.StatementID,
					},
				},
			},
		}
	}

	if tx.CategoryID != nil && *tx.CategoryID != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: *tx.CategoryID,
			},
		}
	}

	props["Direction"] = notionapi.SelectProperty{
		Select: notionapi.Option{
			Name: directionName(tx.Amount),
		},
	}

	return props
}

func directionName(amount float64) string {
	if amount < 0 {
		return "Expense"
	}
	return "Income"
}

// extractTransactionID reads the Transaction ID property off a Notion page.
// Returns empty string when the page lacks one.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}
	richText, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(richText.RichText) == 0 {
		return ""
	}
	return richText.RichText[0].PlainText
}
