package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
)

// TransactionArchiveStore provides the read access the archiver needs: the
// full transaction log of one market. The Postgres transaction store
// satisfies this implicitly.
type TransactionArchiveStore interface {
	ListByMarket(ctx context.Context, marketID string) ([]domain.Transaction, error)
}

// defaultMultipartThreshold is the payload size at which the archiver
// switches from a one-shot PutObject to the multipart upload manager.
const defaultMultipartThreshold int64 = 8 << 20

// ArchiveImpl implements domain.Archiver by exporting a settled market's
// transaction log as JSONL to object storage. The rows stay in the primary
// store; the export is a cold copy, not a move.
type ArchiveImpl struct {
	writer domain.BlobWriter
	txs    TransactionArchiveStore

	// multipartThreshold is overridable in tests.
	multipartThreshold int64
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, txs TransactionArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:             writer,
		txs:                txs,
		multipartThreshold: defaultMultipartThreshold,
	}
}

// ArchiveMarket exports every transaction of the given market to
// archive/markets/{marketID}.jsonl and returns the number of records
// written. Markets with no transactions produce no object.
func (a *ArchiveImpl) ArchiveMarket(ctx context.Context, marketID string) (int64, error) {
	txs, err := a.txs.ListByMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive market query: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(txs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive market marshal: %w", err)
	}

	path := archivePath(marketID)
	if int64(len(buf)) >= a.multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), a.multipartThreshold)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive market upload: %w", err)
	}

	return int64(len(txs)), nil
}

// archivePath builds the S3 key for a market's archive file.
//
//	archive/markets/0f6c...d2.jsonl
func archivePath(marketID string) string {
	return fmt.Sprintf("archive/markets/%s.jsonl", marketID)
}

// archivedTransaction is the JSONL representation of one ledger entry.
type archivedTransaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MarketID  string    `json:"market_id"`
	Type      string    `json:"type"`
	AmountTP  float64   `json:"amount_tp"`
	CreatedAt time.Time `json:"created_at"`
}

// marshalJSONL serialises transactions as newline-delimited JSON, one
// compact line per record.
func marshalJSONL(txs []domain.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, tx := range txs {
		rec := archivedTransaction{
			ID:        tx.ID,
			UserID:    tx.UserID,
			MarketID:  tx.MarketID,
			Type:      string(tx.Type),
			AmountTP:  tx.AmountTP,
			CreatedAt: tx.CreatedAt,
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
