package handlers

import (
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"cryptochat/infrastructure/http/respond"
	"cryptochat/services"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

const avatarField = "avatar"

// ProfileHandler serves the caller's own profile, other profiles and search.
type ProfileHandler struct {
	profiles       services.IProfileService
	maxAvatarBytes int
	log            *slog.Logger
}

func NewProfileHandler(profiles services.IProfileService, maxAvatarBytes int, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxAvatarBytes: maxAvatarBytes, log: log}
}

func (h *ProfileHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /me", protect(http.HandlerFunc(h.handleMe)))
	mux.Handle("PATCH /me", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("POST /me/avatar", protect(http.HandlerFunc(h.handleAvatar)))
	mux.Handle("GET /profiles", protect(http.HandlerFunc(h.handleSearch)))
	mux.Handle("GET /profiles/{id}", protect(http.HandlerFunc(h.handleGet)))
}

// handleMe also refreshes the caller's last seen time.
func (h *ProfileHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	if err := h.profiles.Touch(r.Context(), userID); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "profile", profile)
}

func (h *ProfileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	var update domain.ProfileUpdate
	if err := decode(w, r, &update); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	profile, err := h.profiles.Update(r.Context(), userID, update)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "profile updated", profile)
}

func (h *ProfileHandler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	// Room for the multipart envelope around the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxAvatarBytes)+maxJSONBody)
	file, header, err := r.FormFile(avatarField)
	if err != nil {
		if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
			writeError(w, h.log, r, cerrors.ErrAvatarTooLarge)
			return
		}
		writeError(w, h.log, r, fmt.Errorf("%w: multipart field %q is required", cerrors.ErrInvalidRequest, avatarField))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.maxAvatarBytes)+1))
	if err != nil {
		writeError(w, h.log, r, fmt.Errorf("%w: %w", cerrors.ErrInvalidRequest, err))
		return
	}
	profile, err := h.profiles.UploadAvatar(r.Context(), userID, header.Filename, data)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "avatar updated", profile)
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "profile", profile)
}

func (h *ProfileHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	profiles, err := h.profiles.Search(r.Context(), userID, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "profiles", profiles)
}

// intParam reads an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", cerrors.ErrInvalidRequest, name)
	}
	return n, nil
}
