//go:generate go run go.uber.org/mock/mockgen -source=profile_index.go -destination=../mocks/mock_profile_index.go -package=mocks
package search

import (
	"context"
	"cryptochat/domain"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	idField          = "_id"
	usernameField    = "username"
	displayNameField = "display_name"
	// displayNameKeyField holds the whole lowercased display name so that a
	// wildcard can match inside it the way a substring filter would.
	displayNameKeyField = "display_name_key"
)

type IProfileIndex interface {
	Index(ctx context.Context, profile domain.Profile) error
	Rebuild(ctx context.Context, profiles []domain.Profile) error
	Search(ctx context.Context, query Query) ([]string, error)
}

// ProfileIndex is a derived Bluge view over profiles. The store stays the
// source of truth: the index can always be rebuilt from it.
type ProfileIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewProfileIndex(writer *bluge.Writer, log *slog.Logger) *ProfileIndex {
	return &ProfileIndex{writer: writer, log: log}
}

// OpenWriter opens the Bluge index at path, or an in-memory index when
// path is empty.
func OpenWriter(path string) (*bluge.Writer, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return writer, nil
}

func (p *ProfileIndex) Index(_ context.Context, profile domain.Profile) error {
	doc := toDocument(profile)
	if err := p.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index profile %s: %w", profile.ID, err)
	}
	return nil
}

// Rebuild indexes every given profile in a single batch.
func (p *ProfileIndex) Rebuild(ctx context.Context, profiles []domain.Profile) error {
	batch := bluge.NewBatch()
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := toDocument(profile)
		batch.Update(doc.ID(), doc)
	}
	if err := p.writer.Batch(batch); err != nil {
		return fmt.Errorf("rebuild profile index: %w", err)
	}
	p.log.Info("Profile index rebuilt", "profiles", len(profiles))
	return nil
}

// Search matches the terms anywhere inside the username or the display
// name, case-insensitively, and returns profile ids ordered by username.
func (p *ProfileIndex) Search(ctx context.Context, query Query) ([]string, error) {
	if query.IsEmpty() {
		return []string{}, nil
	}
	pattern := "*" + query.Terms + "*"
	q := bluge.NewBooleanQuery().
		AddShould(
			bluge.NewWildcardQuery(pattern).SetField(usernameField),
			bluge.NewWildcardQuery(pattern).SetField(displayNameKeyField),
			bluge.NewMatchQuery(query.Terms).SetField(displayNameField),
		).
		SetMinShould(1)
	if query.ExcludeID != "" {
		q.AddMustNot(bluge.NewTermQuery(query.ExcludeID).SetField(idField))
	}

	reader, err := p.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open profile index reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	request := bluge.NewTopNSearch(query.Limit, q).SortBy([]string{usernameField})
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	ids := []string{}
	match, err := matches.Next()
	for err == nil && match != nil {
		var id string
		if visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				id = string(value)
				return false
			}
			return true
		}); visitErr != nil {
			return nil, visitErr
		}
		ids = append(ids, id)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate profile matches: %w", err)
	}
	return ids, nil
}

func toDocument(profile domain.Profile) *bluge.Document {
	doc := bluge.NewDocument(profile.ID).
		AddField(bluge.NewKeywordField(usernameField, strings.ToLower(profile.Username)).StoreValue().Sortable())
	if profile.DisplayName != nil {
		doc.AddField(bluge.NewTextField(displayNameField, *profile.DisplayName).StoreValue())
		doc.AddField(bluge.NewKeywordField(displayNameKeyField, strings.ToLower(*profile.DisplayName)))
	}
	return doc
}
