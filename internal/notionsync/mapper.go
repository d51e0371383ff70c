package notionsync

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/pocket-pulse/internal/ledger"
)

// Property names of the transactions database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropType          = "Type"
	PropAmount        = "Amount"
	PropBalanceAfter  = "Balance After"
	PropAccount       = "Account"
	PropCategory      = "Category"
	PropIncomeSource  = "Income Source"
	PropLoan          = "Loan"
	PropRecurring     = "Recurring"
	PropNotes         = "Notes"
	PropSyncHash      = "Sync Hash"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func dateObject(d civil.Date) *notionapi.DateObject {
	start := notionapi.Date(d.In(time.UTC))
	return &notionapi.DateObject{Start: &start}
}

func number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// TransactionToNotionProperties maps a balance-annotated transaction to a
// page of the transactions database. Amount is signed by the transaction's
// effect on its account.
func TransactionToNotionProperties(row ledger.TransactionRow) notionapi.Properties {
	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(row.Description),
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(row.ID),
		},
		PropDate: notionapi.DateProperty{
			Date: dateObject(row.Date),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(row.Type)},
		},
		PropAmount: notionapi.NumberProperty{
			Number: number(row.Effect()),
		},
		PropBalanceAfter: notionapi.NumberProperty{
			Number: number(row.BalanceAfter),
		},
		PropAccount: notionapi.RichTextProperty{
			RichText: richText(row.AccountName),
		},
		PropRecurring: notionapi.CheckboxProperty{
			Checkbox: row.RecurringID != "",
		},
		PropSyncHash: notionapi.RichTextProperty{
			RichText: richText(SyncHash(row)),
		},
	}

	if row.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.Category},
		}
	}
	if row.IncomeSource != "" {
		props[PropIncomeSource] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.IncomeSource},
		}
	}
	if row.LoanName != "" {
		props[PropLoan] = notionapi.RichTextProperty{
			RichText: richText(row.LoanName),
		}
	}
	if row.Notes != "" {
		props[PropNotes] = notionapi.RichTextProperty{
			RichText: richText(row.Notes),
		}
	}

	return props
}

// SyncHash fingerprints every mirrored field of row. A page whose stored hash
// matches needs no update.
func SyncHash(row ledger.TransactionRow) string {
	h := sha256.New()
	for _, field := range []string{
		row.ID,
		row.Description,
		row.Date.String(),
		string(row.Type),
		row.Amount.String(),
		row.BalanceAfter.String(),
		row.AccountName,
		row.Category,
		row.IncomeSource,
		row.LoanName,
		row.RecurringID,
		row.Notes,
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// plainText reads a rich text or title property of page.
func plainText(page notionapi.Page, name string) string {
	var parts []notionapi.RichText
	switch prop := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		parts = prop.RichText
	case *notionapi.TitleProperty:
		parts = prop.Title
	default:
		return ""
	}

	s := ""
	for _, p := range parts {
		if p.PlainText != "" {
			s += p.PlainText
		} else if p.Text != nil {
			s += p.Text.Content
		}
	}
	return s
}

// pageDate reads the Date property of page.
func pageDate(page notionapi.Page) (civil.Date, bool) {
	prop, ok := page.Properties[PropDate].(*notionapi.DateProperty)
	if !ok || prop.Date == nil || prop.Date.Start == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(time.Time(*prop.Date.Start)), true
}
