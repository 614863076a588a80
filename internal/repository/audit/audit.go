// Package audit appends duplicate-detection records to an external
// append-only stream for manual review. Skipped inserts are a policy
// decision, not an error, so the sink only ever receives facts.
package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/triskell-ai/answerdex/internal/domain"
)

// store is the consumer interface for the audit sink (ISP).
type store interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) error
}

// Log appends duplicate records to a Redis stream.
type Log struct {
	store  store
	stream string
	now    func() time.Time
}

// New creates a duplicate-audit log writing to keyPrefix+"duplicates".
func New(s store, keyPrefix string) *Log {
	return &Log{
		store:  s,
		stream: keyPrefix + "duplicates",
		now:    time.Now,
	}
}

// LogDuplicate records a skipped near-duplicate against the original
// document it collided with.
func (l *Log) LogDuplicate(
	ctx context.Context, original domain.Document, duplicateText string, similarity float64,
) error {
	fields := map[string]string{
		"original_id":       original.ID,
		"original_content":  original.Content,
		"duplicate_content": duplicateText,
		"similarity":        strconv.FormatFloat(similarity, 'f', 4, 64),
		"logged_at":         l.now().UTC().Format(time.RFC3339),
	}
	if err := l.store.XAdd(ctx, l.stream, fields); err != nil {
		return fmt.Errorf("append duplicate audit record: %w", err)
	}
	return nil
}
