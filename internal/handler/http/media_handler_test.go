package http_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/GabrielMhv/D-Market-sub000/internal/handler/http"
	"github.com/GabrielMhv/D-Market-sub000/internal/media"
)

type MockMediaUploader struct {
	mock.Mock
}

func (m *MockMediaUploader) UploadBatch(ctx context.Context, files []media.File) ([]string, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMediaUploader) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func multipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newMediaRouter(uploader handler.MediaUploader, maxBytes int64) chi.Router {
	router := chi.NewRouter()
	handler.NewMediaHandler(uploader, maxBytes).RegisterAdminRoutes(router)
	return router
}

func TestMediaHandler_Upload(t *testing.T) {
	uploader := new(MockMediaUploader)
	uploader.On("UploadBatch", mock.Anything, []media.File{{Name: "a.png", Data: []byte("png-bytes")}}).
		Return([]string{"https://cdn.example.com/a.png"}, nil).Once()

	rr := serve(newMediaRouter(uploader, 1<<20), multipartRequest(t, map[string][]byte{"a.png": []byte("png-bytes")}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp handler.UploadMediaResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, resp.URLs)
	uploader.AssertExpectations(t)
}

func TestMediaHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string][]byte
		uploadErr error
		wantCode  int
	}{
		{name: "no_files", files: map[string][]byte{}, wantCode: http.StatusBadRequest},
		{name: "too_large", files: map[string][]byte{"big.png": bytes.Repeat([]byte{1}, 64)}, wantCode: http.StatusRequestEntityTooLarge},
		{name: "not_image", files: map[string][]byte{"x.txt": []byte("hello")}, uploadErr: media.ErrNotImage, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := new(MockMediaUploader)
			if tt.uploadErr != nil {
				uploader.On("UploadBatch", mock.Anything, mock.Anything).Return(nil, tt.uploadErr).Once()
			}

			rr := serve(newMediaRouter(uploader, 32), multipartRequest(t, tt.files))
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			uploader.AssertExpectations(t)
		})
	}
}

func TestMediaHandler_DeleteNotImplemented(t *testing.T) {
	uploader := new(MockMediaUploader)
	uploader.On("Delete", mock.Anything, "https://cdn.example.com/a.png").Return(media.ErrNotImplemented).Once()

	rr := serve(newMediaRouter(uploader, 1<<20), newJSONRequest(t, http.MethodDelete, "/admin/media", handler.DeleteMediaRequest{URL: "https://cdn.example.com/a.png"}))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
	uploader.AssertExpectations(t)
}
