package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotImage       = errors.New("file is not an image")
	ErrTooLarge       = errors.New("file exceeds the upload limit")
	ErrEmptyFile      = errors.New("file is empty")
	ErrNotImplemented = errors.New("media deletion is not implemented")
)

// Raster formats only. SVG is served from the API origin and can carry script.
var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type File struct {
	Name string
	Data []byte
}

type Service struct {
	storage  Storage
	baseURL  string
	maxBytes int64
}

func NewService(storage Storage, baseURL string, maxBytes int64) *Service {
	return &Service{storage: storage, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Upload stores an image under a fresh name and returns its public URL.
// The type is taken from the content, never from name.
func (s *Service) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, name)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		log.Warn().Str("file", name).Str("mime", mtype.String()).Msg("media: rejected non-image upload")
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, name, mtype.String())
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("media: failed to generate name: %w", err)
	}
	stored := id.String() + mtype.Extension()

	if err := s.storage.Put(ctx, stored, data); err != nil {
		log.Error().Err(err).Str("file", name).Msg("media: failed to store upload")
		return "", err
	}

	log.Info().Str("file", name).Str("stored_as", stored).Int("bytes", len(data)).Msg("media: image uploaded")
	return s.baseURL + "/" + stored, nil
}

// UploadBatch uploads files in order and stops at the first failure.
func (s *Service) UploadBatch(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Upload(ctx, f.Name, f.Data)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *Service) Delete(_ context.Context, url string) error {
	log.Warn().Str("url", url).Msg("media: delete requested but not supported")
	return ErrNotImplemented
}
