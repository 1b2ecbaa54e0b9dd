package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yelpcamp/internal/domain"
)

// Upload is an image file received from a form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedImageExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ValidateImage accepts only jpg, jpeg, png and gif filenames, ignoring case.
func ValidateImage(u *Upload) error {
	if u == nil || u.Body == nil {
		return fmt.Errorf("%w: an image file is required", domain.ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if _, ok := allowedImageExt[ext]; !ok {
		return fmt.Errorf("%w: only image files are allowed", domain.ErrValidation)
	}
	return nil
}

// timestampedName prefixes the original filename with the upload time in milliseconds
// so that two uploads of "photo.jpg" never collide.
func timestampedName(now time.Time, filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))
	return strconv.FormatInt(now.UnixMilli(), 10) + base
}
