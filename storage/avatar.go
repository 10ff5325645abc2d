package storage

import (
	"cryptochat/domain/mimetypes"
	cerrors "cryptochat/errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DetectAvatar sniffs the content, never trusting the client file name,
// and returns the accepted image type with its extension.
func DetectAvatar(data []byte) (mimetypes.MIME, string, error) {
	detected := mimetype.Detect(data).String()
	m, ext, ok := mimetypes.Avatar(detected)
	if !ok {
		return mimetypes.Unknown, "", fmt.Errorf("%w: %s", cerrors.ErrUnsupportedAvatar, detected)
	}
	return m, ext, nil
}

// AvatarPath builds a fresh object path for a profile avatar.
func AvatarPath(profileID, ext string) string {
	return "avatars/" + profileID + "/" + uuid.NewString() + ext
}
