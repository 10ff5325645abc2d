package sink

import (
	"context"
	"cryptochat/domain/event"
	"cryptochat/search"
	"fmt"
	"log/slog"
)

// SearchSink keeps the profile search index in line with profile writes.
type SearchSink struct {
	index search.IProfileIndex
	log   *slog.Logger
}

func NewSearchSink(index search.IProfileIndex, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ProfileChanged:
		return s.index.Index(ctx, evt.Profile)
	default:
		s.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}
