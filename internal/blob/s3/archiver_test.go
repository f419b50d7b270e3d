package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
)

type fakeWriter struct {
	key         string
	contentType string
	body        []byte
	multipart   bool
	err         error
}

func (f *fakeWriter) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.contentType = contentType
	data, _ := io.ReadAll(body)
	f.body = data
	return nil
}

func (f *fakeWriter) PutMultipart(_ context.Context, key string, body io.Reader, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.multipart = true
	data, _ := io.ReadAll(body)
	f.body = data
	return nil
}

type fakeTxStore struct {
	txs []domain.Transaction
	err error
}

func (f *fakeTxStore) ListByMarket(_ context.Context, _ string) ([]domain.Transaction, error) {
	return f.txs, f.err
}

func TestArchiveMarketWritesJSONL(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTxStore{txs: []domain.Transaction{
		{ID: "t1", UserID: "u1", MarketID: "m1", Type: domain.TxBuyYes, AmountTP: 100, CreatedAt: ts},
		{ID: "t2", UserID: "u1", MarketID: "m1", Type: domain.TxPayout, AmountTP: 179, CreatedAt: ts.Add(time.Hour)},
	}}
	writer := &fakeWriter{}
	arch := NewArchiver(writer, store)

	n, err := arch.ArchiveMarket(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), n)
	assert.Equal(t, "archive/markets/m1.jsonl", writer.key)
	assert.Equal(t, "application/x-ndjson", writer.contentType)

	lines := strings.Split(strings.TrimSpace(string(writer.body)), "\n")
	require.Len(t, lines, 2)

	var first archivedTransaction
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "BUY_YES", first.Type)
	assert.Equal(t, 100.0, first.AmountTP)
}

func TestArchiveMarketLargeLogGoesMultipart(t *testing.T) {
	store := &fakeTxStore{txs: []domain.Transaction{
		{ID: "t1", UserID: "u1", MarketID: "m1", Type: domain.TxBuyYes, AmountTP: 100},
		{ID: "t2", UserID: "u2", MarketID: "m1", Type: domain.TxBuyNo, AmountTP: 40},
	}}
	writer := &fakeWriter{}
	arch := NewArchiver(writer, store)
	arch.multipartThreshold = 16 // force the multipart path

	n, err := arch.ArchiveMarket(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, writer.multipart)
	assert.Equal(t, "archive/markets/m1.jsonl", writer.key)
	assert.Equal(t, 2, bytes.Count(writer.body, []byte("\n")))
}

func TestArchiveMarketEmptyLogWritesNothing(t *testing.T) {
	writer := &fakeWriter{}
	arch := NewArchiver(writer, &fakeTxStore{})

	n, err := arch.ArchiveMarket(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Empty(t, writer.key)
}

func TestArchiveMarketPropagatesUploadError(t *testing.T) {
	store := &fakeTxStore{txs: []domain.Transaction{{ID: "t1", MarketID: "m1"}}}
	writer := &fakeWriter{err: errors.New("bucket gone")}
	arch := NewArchiver(writer, store)

	_, err := arch.ArchiveMarket(context.Background(), "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload")
}

func TestMarshalJSONLCompactLines(t *testing.T) {
	buf, err := marshalJSONL([]domain.Transaction{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(buf, []byte("\n")))
}
