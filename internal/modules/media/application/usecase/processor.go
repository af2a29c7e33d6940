package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"toursApi/internal/modules/media/application/port"
	"toursApi/internal/modules/media/domain"
	"toursApi/internal/shared/apperror"
)

const maxParallelResize = 4

// TourImages is the result of processing a tour upload. Empty fields mean
// nothing was uploaded for them.
type TourImages struct {
	Cover  string
	Images []string
}

// Processor resizes uploads and stores them.
type Processor struct {
	storage port.ObjectStorage
	resizer port.Resizer
	now     func() time.Time
}

func NewProcessor(storage port.ObjectStorage, resizer port.Resizer) *Processor {
	return &Processor{storage: storage, resizer: resizer, now: time.Now}
}

// Check rejects uploads that are not images before any work is done.
func Check(uploads ...domain.Upload) error {
	for _, u := range uploads {
		if !u.IsImage() {
			return apperror.BadRequest(domain.MessageNotImage)
		}
	}
	return nil
}

// TourImages processes the cover and gallery uploads of one tour.
func (p *Processor) TourImages(ctx context.Context, tourID string, cover *domain.Upload, images []domain.Upload) (TourImages, error) {
	var out TourImages
	all := append([]domain.Upload(nil), images...)
	if cover != nil {
		all = append(all, *cover)
	}
	if err := Check(all...); err != nil {
		return out, err
	}

	at := p.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelResize)

	if cover != nil {
		name := domain.TourCoverName(tourID, at)
		out.Cover = name
		upload := *cover
		g.Go(func() error {
			return p.store(gctx, upload, domain.TourImage, domain.Key(domain.TourFolder, name))
		})
	}
	out.Images = make([]string, len(images))
	for i, upload := range images {
		upload := upload
		name := domain.TourImageName(tourID, at, i+1)
		out.Images[i] = name
		g.Go(func() error {
			return p.store(gctx, upload, domain.TourImage, domain.Key(domain.TourFolder, name))
		})
	}
	if err := g.Wait(); err != nil {
		return TourImages{}, err
	}
	if len(out.Images) == 0 {
		out.Images = nil
	}
	return out, nil
}

// UserPhoto processes a profile photo and returns its file name.
func (p *Processor) UserPhoto(ctx context.Context, userID string, upload domain.Upload) (string, error) {
	if err := Check(upload); err != nil {
		return "", err
	}
	name := domain.UserPhotoName(userID, p.now())
	if err := p.store(ctx, upload, domain.UserPhoto, domain.Key(domain.UserFolder, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (p *Processor) store(ctx context.Context, upload domain.Upload, spec domain.Spec, key string) error {
	data, err := p.resize(upload, spec)
	if err != nil {
		return err
	}
	if err := p.storage.Put(ctx, key, data, domain.ContentTypeJPEG); err != nil {
		slog.Error("store image failed", slog.String("key", key), slog.Any("error", err))
		return apperror.Store("could not store image", err)
	}
	return nil
}

func (p *Processor) resize(upload domain.Upload, spec domain.Spec) ([]byte, error) {
	if upload.Open == nil {
		return nil, apperror.BadRequest(domain.MessageNotImage)
	}
	r, err := upload.Open()
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("open upload %s: %w", upload.Filename, err))
	}
	defer closeQuietly(r)

	data, err := p.resizer.Resize(r, spec)
	if errors.Is(err, domain.ErrNotImage) {
		return nil, apperror.BadRequest(domain.MessageNotImage)
	}
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("resize %s: %w", upload.Filename, err))
	}
	return data, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
