// Package notionsync mirrors a user's ledger into a Notion database, one
// page per transaction.
package notionsync

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/logger"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
	// pageSize is the Notion query page size.
	pageSize = 100
)

// Options narrow a sync. Pages dated outside [From, To] are never archived,
// so a ranged sync leaves the rest of the mirror alone.
type Options struct {
	From   *civil.Date
	To     *civil.Date
	DryRun bool
}

func (o Options) covers(d civil.Date) bool {
	if o.From != nil && d.Before(*o.From) {
		return false
	}
	if o.To != nil && d.After(*o.To) {
		return false
	}
	return true
}

// Result counts what a sync did, or would do in a dry run.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Archived  int `json:"archived"`
	Failed    int `json:"failed"`
}

// SyncTransactions makes the Notion database match rows:
// 1. pages for rows that have none are created
// 2. pages whose Sync Hash differs from the row are updated
// 3. pages in range whose Transaction ID is not in rows are archived
// Individual page failures are logged and counted; only a failed database
// query aborts the sync.
func SyncTransactions(ctx context.Context, notionClient NotionService, notionDBID string, rows []ledger.TransactionRow, opts Options) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	log.Info().
		Int("transaction_count", len(rows)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting transaction sync to Notion")

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	wanted := make(map[string]bool, len(rows))
	for _, row := range rows {
		wanted[row.ID] = true
	}

	// Index existing pages; duplicates and orphans are archived.
	existing := make(map[string]notionapi.Page)
	for _, page := range notionPages {
		txID := plainText(page, PropTransactionID)
		if d, ok := pageDate(page); ok && !opts.covers(d) {
			if txID != "" {
				existing[txID] = page
			}
			continue
		}

		_, dup := existing[txID]
		if txID != "" && wanted[txID] && !dup {
			existing[txID] = page
			continue
		}

		if opts.DryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			res.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		res.Archived++
	}

	for i := 0; i < len(rows); i += BatchSize {
		end := i + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Processing batch")

		for _, row := range rows[i:end] {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("SyncTransactions: %w", err)
			}
			syncRow(ctx, notionClient, notionDBID, row, existing, opts.DryRun, &res)
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Transaction sync completed")
	return res, nil
}

func syncRow(ctx context.Context, notionClient NotionService, notionDBID string, row ledger.TransactionRow, existing map[string]notionapi.Page, dryRun bool, res *Result) {
	log := logger.FromContext(ctx).With().Str("transaction_id", row.ID).Logger()

	page, found := existing[row.ID]
	switch {
	case found && plainText(page, PropSyncHash) == SyncHash(row):
		res.Unchanged++
	case dryRun && found:
		log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update Notion page")
		res.Updated++
	case dryRun:
		log.Info().Msg("[DRY RUN] Would create Notion page")
		res.Created++
	case found:
		if _, err := notionClient.UpdatePage(ctx, string(page.ID), TransactionToNotionProperties(row)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
			res.Failed++
			return
		}
		res.Updated++
	default:
		created, err := notionClient.CreatePage(ctx, notionDBID, TransactionToNotionProperties(row))
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create Notion page")
			res.Failed++
			return
		}
		log.Debug().Str("page_id", string(created.ID)).Msg("Created Notion page")
		res.Created++
	}
}

// queryAllNotionPages follows the cursor until every page of the database
// has been read.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: pageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
