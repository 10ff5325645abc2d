package handlers

import (
	"bytes"
	"cryptochat/auth"
	"cryptochat/services"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// unreachableProfiles panics if the upload ever reaches the service.
type unreachableProfiles struct {
	services.IProfileService
}

func asUser(id string) Protect {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), &auth.CustomClaims{UserID: id})))
		})
	}
}

func multipartBody(t *testing.T, field string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(field, "me.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
	require.NoError(t, err)
	require.NoError(t, form.Close())
	return &body, form.FormDataContentType()
}

func TestProfileHandler_Avatar_Rejected_Before_Service(t *testing.T) {
	const maxAvatarBytes = 1 << 10
	tests := []struct {
		name    string
		field   string
		size    int
		status  int
		message string
	}{
		{name: "body beyond the upload limit", field: avatarField, size: 3 << 20, status: http.StatusRequestEntityTooLarge, message: "avatar exceeds maximum size"},
		{name: "missing avatar field", field: "picture", size: 16, status: http.StatusBadRequest, message: `multipart field "avatar" is required`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			mux := http.NewServeMux()
			NewProfileHandler(unreachableProfiles{}, maxAvatarBytes, slog.Default()).Register(mux, asUser("alice"))

			// Given an upload the handler must refuse
			body, contentType := multipartBody(t, tt.field, tt.size)
			upload := httptest.NewRequest(http.MethodPost, "/me/avatar", body)
			upload.Header.Set("Content-Type", contentType)

			// When it is posted
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, upload)

			// Then the status reflects why
			req.Equal(tt.status, rec.Code)
			var envelope struct {
				Message string `json:"message"`
			}
			req.NoError(json.NewDecoder(rec.Body).Decode(&envelope))
			req.Contains(envelope.Message, tt.message)
		})
	}
}
