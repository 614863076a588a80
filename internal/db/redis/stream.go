package redis

import (
	"context"

	"github.com/triskell-ai/answerdex/internal/db"
)

// XAdd appends an entry to a stream with an auto-generated id.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) error {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for f, v := range fields {
		cmd = cmd.FieldValue(f, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpXAdd, Err: err}
	}
	return nil
}
