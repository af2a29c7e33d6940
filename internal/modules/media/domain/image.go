package domain

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const MessageNotImage = "Not an image! Please upload only images."

var ErrNotImage = errors.New("upload is not an image")

// Spec is the target size of a processed image.
type Spec struct {
	Width   int
	Height  int
	Quality int
}

var (
	TourImage = Spec{Width: 2000, Height: 1333, Quality: 90}
	UserPhoto = Spec{Width: 500, Height: 500, Quality: 90}
)

const (
	TourFolder = "tours"
	UserFolder = "users"

	ContentTypeJPEG = "image/jpeg"
)

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// IsImage checks the declared content type.
func (u Upload) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u.ContentType)), "image/")
}

// Stored is a processed image: Name goes into the record, Key addresses
// the object in storage.
type Stored struct {
	Name string
	Key  string
}

func stamp(at time.Time) int64 {
	return at.UnixMilli()
}

func TourCoverName(tourID string, at time.Time) string {
	return fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, stamp(at))
}

// TourImageName numbers gallery images from 1.
func TourImageName(tourID string, at time.Time, n int) string {
	return fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, stamp(at), n)
}

func UserPhotoName(userID string, at time.Time) string {
	return fmt.Sprintf("user-%s-%d.jpeg", userID, stamp(at))
}

// Key joins a folder and a file name into a storage key.
func Key(folder, name string) string {
	return folder + "/" + name
}
