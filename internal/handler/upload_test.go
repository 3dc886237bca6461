package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

// The rejection paths run before any database or disk access, so a bare
// handler is enough to exercise them.
func TestUploadRejections(t *testing.T) {
	h := &MediaHandler{}

	t.Run("missing file field", func(t *testing.T) {
		rec, c := multipartUpload(t, "attachment", "a.png", "image/png", []byte("x"))
		require.NoError(t, h.Upload(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		rec, c := multipartUpload(t, "file", "a.svg", "image/svg+xml", []byte("<svg/>"))
		require.NoError(t, h.Upload(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversize file", func(t *testing.T) {
		big := make([]byte, maxUploadSize+1)
		rec, c := multipartUpload(t, "file", "big.png", "image/png", big)
		require.NoError(t, h.Upload(c))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
