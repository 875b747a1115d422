package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestHandler(t *testing.T, mutate ...func(*Params)) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, mutate...)
	return NewHTTPHandler(svc, nil, 1<<20, 1<<20).Router()
}

func TestHTTP_Upload(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t, "report.txt", []byte("quarterly numbers"), map[string]string{
		"destination": "reports",
		"options":     `{"naming":"original","scan":true}`,
		"Owner":       "finance",
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.NotNil(t, res.Main)
	assert.Equal(t, "/reports/report.txt", res.Main.Path)
	assert.Equal(t, int64(17), res.Main.Size)
}

func TestHTTP_UploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		fields  map[string]string
		allowed map[string][]string
		want    int
	}{
		{name: "threat", file: "x.txt", content: []byte(eicar), want: http.StatusUnprocessableEntity},
		{name: "unsupported", file: "x.txt", content: []byte("text"), allowed: map[string][]string{"images": {"png"}}, want: http.StatusUnsupportedMediaType},
		{name: "bad options", file: "x.txt", content: []byte("text"), fields: map[string]string{"options": "{"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, func(p *Params) {
				if tt.allowed != nil {
					p.Defaults.AllowedTypes = tt.allowed
				}
			})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, multipartRequest(t, tt.file, tt.content, tt.fields))
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestHTTP_MissingFile(t *testing.T) {
	h := newTestHandler(t)
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("destination", "x"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHTTP_FilesAndURLs(t *testing.T) {
	svc, store := newTestService(t)
	h := NewHTTPHandler(svc, nil, 1<<20, 1<<20).Router()
	put(t, store, "docs/a.txt", "text/plain", []byte("abc"))

	do := func(method, target string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
		return rr
	}

	rr := do(http.MethodGet, "/api/v1/files/docs/a.txt")
	require.Equal(t, http.StatusOK, rr.Code)
	var md Metadata
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &md))
	assert.Equal(t, "/docs/a.txt", md.Path)
	assert.Equal(t, int64(3), md.Size)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/files/docs/missing.txt").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/urls/docs/missing.txt").Code)

	rr = do(http.MethodGet, "/api/v1/urls/docs/a.txt")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"url":"http://storage.test/media/docs/a.txt"}`, rr.Body.String())

	rr = do(http.MethodGet, "/api/v1/urls/docs/a.txt?signed=true&expiration=60")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "signature=")

	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/v1/urls/docs/a.txt?signed=maybe").Code)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/api/v1/files/docs/a.txt").Code)
	assert.Empty(t, store.Keys())
}

func TestHTTP_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHTTP_WatermarkImageConfinedToWatermarkDir(t *testing.T) {
	wmDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wmDir, "logo.png"), pngBytes(t, 8, 8), 0o600))
	svc, store := newTestService(t, func(p *Params) { p.Defaults.WatermarkDir = wmDir })
	h := NewHTTPHandler(svc, nil, 1<<20, 1<<20).Router()

	upload := func(opts string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, multipartRequest(t, "photo.png", pngBytes(t, 40, 20), map[string]string{
			"destination": "gallery",
			"options":     opts,
		}))
		return rr
	}

	rr := upload(`{"scan":false,"watermark":{"image":"logo.png"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, true, res.Main.ProcessingMetadata["watermarked"])

	secret := filepath.Join(t.TempDir(), "private.png")
	require.NoError(t, os.WriteFile(secret, pngBytes(t, 8, 8), 0o600))
	for _, name := range []string{secret, "../private.png", "/etc/passwd"} {
		rr = upload(`{"scan":false,"watermark":{"image":` + strconv.Quote(name) + `}}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		assert.NotContains(t, rr.Body.String(), "watermarked")
	}
	assert.Len(t, store.Keys(), 1)
}

func TestHTTP_ServerErrorsAreGeneric(t *testing.T) {
	wmDir := t.TempDir()
	svc, _ := newTestService(t, func(p *Params) { p.Defaults.WatermarkDir = wmDir })
	h := NewHTTPHandler(svc, nil, 1<<20, 1<<20).Router()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartRequest(t, "photo.png", pngBytes(t, 40, 20), map[string]string{
		"options": `{"scan":false,"watermark":{"image":"missing.png"}}`,
	}))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"upload failed"}`, rr.Body.String())

	store := &mockStore{}
	store.On("Stat", mock.Anything, "docs/a.txt").Return(nil, errors.New("dial tcp 10.0.0.7:9000: connection refused"))
	svc, _ = newTestService(t, func(p *Params) { p.Store = store })
	h = NewHTTPHandler(svc, nil, 1<<20, 1<<20).Router()

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/files/docs/a.txt", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.7")
}
