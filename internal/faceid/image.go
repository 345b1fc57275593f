package faceid

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/gradgate/internal/models"
)

// ImageSource is the one typed input the pipeline accepts: either raw bytes
// already in hand, or a reference to a stored object. It is resolved into a
// pixel buffer exactly once, at the service boundary.
type ImageSource struct {
	ref  string
	data []byte
}

func FromBytes(data []byte) ImageSource {
	return ImageSource{data: data}
}

func FromRef(ref string) ImageSource {
	return ImageSource{ref: ref}
}

// DecodePhoto accepts a base64 image, with or without a
// "data:<mime>;base64," header, and returns the raw bytes plus the file
// extension implied by the header (jpg when absent).
func DecodePhoto(photo string) ([]byte, string, error) {
	ext := "jpg"
	if strings.HasPrefix(photo, "data:") {
		header, encoded, found := strings.Cut(photo, ",")
		if !found {
			return nil, "", fmt.Errorf("%w: malformed data url", models.ErrBadImage)
		}
		mime := strings.TrimPrefix(strings.TrimSuffix(header, ";base64"), "data:")
		if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
			ext = sub
		}
		photo = encoded
	}

	data, err := base64.StdEncoding.DecodeString(photo)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64", models.ErrBadImage)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", models.ErrBadImage)
	}
	return data, ext, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadImage, err)
	}
	return img, nil
}

// imageKey builds the object key for an enrolled face image: the student PID
// plus a random suffix, so re-enrollments never collide, under a faces/
// prefix. The key is what gets persisted as the face record's image ref.
func imageKey(pid, ext string) string {
	return fmt.Sprintf("faces/%s_%s.%s", pid, uuid.New().String(), ext)
}
