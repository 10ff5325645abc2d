package sink

import (
	"context"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSearchSink_Consume_ProfileChanged(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	index := mocks.NewMockIProfileIndex(ctrl)
	s := NewSearchSink(index, logs.GetLoggerFromLevel(slog.LevelDebug))

	profile := domain.Profile{ID: "p1", Username: "alice"}
	// Given the changed profile is indexed
	index.EXPECT().Index(gomock.Any(), profile).Return(nil).Times(1)

	// When the event is consumed
	err := s.Consume(context.Background(), event.ProfileChanged{Profile: profile, At: time.Now()})

	// Then no error happens
	req.NoError(err)
}

func TestSearchSink_Ignores_Other_Events(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	index := mocks.NewMockIProfileIndex(ctrl)
	s := NewSearchSink(index, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(s.Consume(context.Background(), event.MessageCensored{SenderID: "p1"}))
}

func TestCensorshipSink_Counts_Hits(t *testing.T) {
	req := require.New(t)
	s := NewCensorshipSink(logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx := context.Background()

	req.NoError(s.Consume(ctx, event.MessageCensored{MessageID: "m1", Words: []string{"scam", "scam"}}))
	req.NoError(s.Consume(ctx, event.MessageCensored{MessageID: "m2", Words: []string{"ponzi"}}))
	req.NoError(s.Consume(ctx, event.ProfileChanged{}))

	count, hits := s.Stats()
	req.Equal(uint64(2), count)
	req.Equal(map[string]uint64{"scam": 2, "ponzi": 1}, hits)
}
