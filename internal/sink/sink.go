// Package sink implements the two-method storage collaborator: an
// idempotent artifact sink plus a metadata record store.
package sink

import (
	"context"
	"strconv"
)

// Sink is the external storage collaborator required by the
// orchestrator: `put`/`exists` for artifact bytes, `record_metadata`
// for a per-filing key-value upsert.
type Sink interface {
	Put(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	RecordMetadata(ctx context.Context, filingID string, attrs map[string]string) error
}

// FilingID builds the canonical metadata key:
// {ticker}-{filing_type}-{fiscal_year}-{fiscal_period}.
func FilingID(ticker, filingType string, fiscalYear int, fiscalPeriod string) string {
	return ticker + "-" + filingType + "-" + strconv.Itoa(fiscalYear) + "-" + fiscalPeriod
}
