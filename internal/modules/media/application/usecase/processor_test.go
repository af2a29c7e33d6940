package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toursApi/internal/modules/media/domain"
	"toursApi/internal/shared/apperror"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

type echoResizer struct{}

func (echoResizer) Resize(r io.Reader, _ domain.Spec) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if string(data) == "broken" {
		return nil, domain.ErrNotImage
	}
	return data, nil
}

func upload(name, contentType, body string) domain.Upload {
	return domain.Upload{
		Filename:    name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(body)), nil
		},
	}
}

func newTestProcessor(storage *memoryStorage) *Processor {
	p := NewProcessor(storage, echoResizer{})
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func TestTourImagesStoresCoverAndGallery(t *testing.T) {
	storage := &memoryStorage{}
	p := newTestProcessor(storage)
	cover := upload("cover.png", "image/png", "c")

	out, err := p.TourImages(context.Background(), "abc", &cover, []domain.Upload{
		upload("1.png", "image/png", "one"),
		upload("2.png", "image/png", "two"),
	})
	require.NoError(t, err)
	require.Equal(t, "tour-abc-1700000000000-cover.jpeg", out.Cover)
	require.Equal(t, []string{"tour-abc-1700000000000-1.jpeg", "tour-abc-1700000000000-2.jpeg"}, out.Images)
	require.Equal(t, "two", string(storage.objects["tours/tour-abc-1700000000000-2.jpeg"]))
	require.Len(t, storage.objects, 3)
}

func TestTourImagesWithoutUploads(t *testing.T) {
	out, err := newTestProcessor(&memoryStorage{}).TourImages(context.Background(), "abc", nil, nil)
	require.NoError(t, err)
	require.Empty(t, out.Cover)
	require.Nil(t, out.Images)
}

func TestRejectsNonImages(t *testing.T) {
	p := newTestProcessor(&memoryStorage{})

	_, err := p.UserPhoto(context.Background(), "u1", upload("notes.txt", "text/plain", "x"))
	require.True(t, apperror.Is(err, apperror.KindValidation))
	require.Contains(t, err.Error(), domain.MessageNotImage)

	_, err = p.UserPhoto(context.Background(), "u1", upload("fake.png", "image/png", "broken"))
	require.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestUserPhotoStorageFailure(t *testing.T) {
	p := newTestProcessor(&memoryStorage{err: errors.New("disk full")})
	_, err := p.UserPhoto(context.Background(), "u1", upload("me.png", "image/png", "x"))
	require.True(t, apperror.Is(err, apperror.KindStore))
}

func TestUserPhotoName(t *testing.T) {
	storage := &memoryStorage{}
	name, err := newTestProcessor(storage).UserPhoto(context.Background(), "u1", upload("me.png", "image/png", "x"))
	require.NoError(t, err)
	require.Equal(t, "user-u1-1700000000000.jpeg", name)
	require.Contains(t, storage.objects, "users/user-u1-1700000000000.jpeg")
}
