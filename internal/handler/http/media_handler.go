package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/media"
)

const maxFilesPerUpload = 10

type MediaUploader interface {
	UploadBatch(ctx context.Context, files []media.File) ([]string, error)
	Delete(ctx context.Context, url string) error
}

type DeleteMediaRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type UploadMediaResponse struct {
	URLs []string `json:"urls"`
}

type MediaHandler struct {
	uploader MediaUploader
	maxBytes int64
	validate *validator.Validate
}

func NewMediaHandler(uploader MediaUploader, maxBytes int64) *MediaHandler {
	return &MediaHandler{uploader: uploader, maxBytes: maxBytes, validate: newValidator()}
}

func (h *MediaHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/admin/media", h.handleUpload)
	router.Delete("/admin/media", h.handleDelete)
}

func (h *MediaHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*maxFilesPerUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		log.Warn().Err(err).Msg("Failed to parse multipart upload")
		respondWithError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondWithError(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) > maxFilesPerUpload {
		respondWithError(w, http.StatusBadRequest, "Too many files")
		return
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxBytes {
			respondWithError(w, http.StatusRequestEntityTooLarge, media.ErrTooLarge.Error())
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		_ = f.Close()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, media.File{Name: fh.Filename, Data: data})
	}

	urls, err := h.uploader.UploadBatch(r.Context(), files)
	if err != nil {
		respondWithServiceError(w, err, "Failed to store images")
		return
	}

	respondWithJSON(w, http.StatusCreated, UploadMediaResponse{URLs: urls})
}

func (h *MediaHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteMediaRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.uploader.Delete(r.Context(), req.URL); err != nil {
		respondWithServiceError(w, err, "Failed to delete image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
