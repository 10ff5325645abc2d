package sink

import (
	"context"
	"cryptochat/domain/event"
	"log/slog"
	"sync"
)

// CensorshipSink counts moderation hits per word.
type CensorshipSink struct {
	mu      sync.Mutex
	log     *slog.Logger
	counter uint64
	hit     map[string]uint64
}

func NewCensorshipSink(log *slog.Logger) *CensorshipSink {
	return &CensorshipSink{log: log, hit: make(map[string]uint64)}
}

func (c *CensorshipSink) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageCensored)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	for _, word := range evt.Words {
		c.hit[word]++
	}
	c.log.Info("Message censored",
		"message_id", evt.MessageID,
		"conversation_id", evt.ConversationID,
		"sender_id", evt.SenderID,
		"words", len(evt.Words))
	return nil
}

// Stats returns the number of censored messages and a copy of the hits per word.
func (c *CensorshipSink) Stats() (uint64, map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits := make(map[string]uint64, len(c.hit))
	for word, n := range c.hit {
		hits[word] = n
	}
	return c.counter, hits
}
