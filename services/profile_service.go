package services

import (
	"bytes"
	"context"
	"cryptochat/auth"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"cryptochat/search"
	"cryptochat/storage"
	"log/slog"
	"time"
)

type IProfileService interface {
	Get(ctx context.Context, id string) (domain.Profile, error)
	Update(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Profile, error)
	Touch(ctx context.Context, id string) error
	UploadAvatar(ctx context.Context, id, filename string, data []byte) (domain.Profile, error)
	Search(ctx context.Context, currentUserID, query string, limit int) ([]domain.Profile, error)
	RebuildIndex(ctx context.Context) error
}

type ProfileService struct {
	profiles       repositories.IProfileRepository
	index          search.IProfileIndex
	objects        storage.IObjectStore
	events         contract.IEventPublisher
	maxAvatarBytes int
	log            *slog.Logger
}

func NewProfileService(
	profiles repositories.IProfileRepository,
	index search.IProfileIndex,
	objects storage.IObjectStore,
	events contract.IEventPublisher,
	maxAvatarBytes int,
	log *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:       profiles,
		index:          index,
		objects:        objects,
		events:         events,
		maxAvatarBytes: maxAvatarBytes,
		log:            log,
	}
}

func (p *ProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	profile, err := p.profiles.GetProfile(ctx, id)
	if err != nil {
		return domain.Profile{}, logFailure(p.log, "Get profile", err, "profile_id", id)
	}
	return profile, nil
}

// Update changes the editable fields only. The username never changes.
func (p *ProfileService) Update(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Profile, error) {
	if err := auth.ValidateStruct(update); err != nil {
		return domain.Profile{}, err
	}
	profile, err := p.profiles.UpdateProfile(ctx, id, update)
	if err != nil {
		return domain.Profile{}, logFailure(p.log, "Update profile", err, "profile_id", id)
	}
	p.changed(ctx, profile)
	return profile, nil
}

func (p *ProfileService) Touch(ctx context.Context, id string) error {
	if err := p.profiles.TouchLastSeen(ctx, id, time.Now().UTC()); err != nil {
		return logFailure(p.log, "Touch profile", err, "profile_id", id)
	}
	return nil
}

// UploadAvatar sniffs the image type from its content, stores it and saves
// its public URL on the profile.
func (p *ProfileService) UploadAvatar(ctx context.Context, id, filename string, data []byte) (domain.Profile, error) {
	if len(data) == 0 {
		return domain.Profile{}, cerrors.ErrUnsupportedAvatar
	}
	if p.maxAvatarBytes > 0 && len(data) > p.maxAvatarBytes {
		return domain.Profile{}, cerrors.ErrAvatarTooLarge
	}
	if _, err := p.profiles.GetProfile(ctx, id); err != nil {
		return domain.Profile{}, logFailure(p.log, "Get profile", err, "profile_id", id)
	}
	mime, ext, err := storage.DetectAvatar(data)
	if err != nil {
		p.log.Debug("Avatar rejected", "profile_id", id, "filename", filename, "error", err)
		return domain.Profile{}, err
	}

	objectPath := storage.AvatarPath(id, ext)
	if err := p.objects.Put(ctx, objectPath, bytes.NewReader(data)); err != nil {
		return domain.Profile{}, logFailure(p.log, "Store avatar", err, "profile_id", id, "path", objectPath)
	}
	profile, err := p.profiles.SetAvatar(ctx, id, p.objects.PublicURL(objectPath))
	if err != nil {
		return domain.Profile{}, logFailure(p.log, "Set avatar", err, "profile_id", id)
	}
	p.log.Info("Avatar uploaded", "profile_id", id, "filename", filename, "mime", mime, "size", len(data))
	p.changed(ctx, profile)
	return profile, nil
}

// Search returns the profiles whose username or display name match the
// query, excluding the caller. A blank query returns no profiles.
func (p *ProfileService) Search(ctx context.Context, currentUserID, query string, limit int) ([]domain.Profile, error) {
	q := search.NewQuery(query, currentUserID, limit)
	if q.IsEmpty() {
		return []domain.Profile{}, nil
	}
	ids, err := p.index.Search(ctx, q)
	if err != nil {
		return nil, logFailure(p.log, "Search profiles", err, "query", q.Terms)
	}
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	profiles, err := p.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, logFailure(p.log, "Get profiles", err, "count", len(ids))
	}
	return profiles, nil
}

// RebuildIndex replaces the search index content with every stored profile.
func (p *ProfileService) RebuildIndex(ctx context.Context) error {
	profiles, err := p.profiles.ListProfiles(ctx)
	if err != nil {
		return logFailure(p.log, "List profiles", err)
	}
	if err := p.index.Rebuild(ctx, profiles); err != nil {
		return logFailure(p.log, "Rebuild index", err)
	}
	p.log.Info("Profile index rebuilt", "profiles", len(profiles))
	return nil
}

func (p *ProfileService) changed(ctx context.Context, profile domain.Profile) {
	if err := p.events.Publish(ctx, event.ProfileChanged{Profile: profile, At: profile.UpdatedAt}); err != nil {
		p.log.Warn("Profile change not indexed", "profile_id", profile.ID, "error", err)
	}
}
