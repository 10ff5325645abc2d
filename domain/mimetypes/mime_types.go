package mimetypes

import "mime"

type MIME string

const (
	Unknown MIME = "unknown"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
)

// avatarExtensions lists the image types accepted as avatars and the file
// extension they are stored with.
var avatarExtensions = map[MIME]string{
	ImagePNG:  ".png",
	ImageJPEG: ".jpg",
	ImageGIF:  ".gif",
	ImageWEBP: ".webp",
}

// Matches reports whether a detected media type, parameters included, is expected.
func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Avatar maps a detected media type to an accepted avatar type and its extension.
func Avatar(detected string) (MIME, string, bool) {
	for m, ext := range avatarExtensions {
		if _, ok := Matches(detected, m); ok {
			return m, ext, true
		}
	}
	return Unknown, "", false
}
