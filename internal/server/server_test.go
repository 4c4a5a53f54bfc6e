package server

import (
	"bytes"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s, err := New(config.Default(), nil)
	require.NoError(t, err)
	return s.Router()
}

func encodeSprite(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x >= 20 && x < 44 && y >= 20 && y < 44 {
				c = color.NRGBA{R: 180, G: 40, B: 40, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, raster.EncodePNG(&buf, img))
	return &buf
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIsolateRoundTrip(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/isolate", encodeSprite(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "false", rec.Header().Get("X-Symbolcut-Skipped"))
	require.Equal(t, "false", rec.Header().Get("X-Symbolcut-Fallback"))
	require.NotEmpty(t, rec.Header().Get("X-Symbolcut-Box"))

	out, format, err := raster.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "png", format)
	// The corner is canvas and must come back transparent.
	require.EqualValues(t, 0, out.NRGBAAt(0, 0).A)
}

func TestIsolateSkipHeader(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, raster.EncodePNG(&buf, img))

	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/isolate", &buf))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get("X-Symbolcut-Skipped"))
	require.Empty(t, rec.Header().Get("X-Symbolcut-Box"))
}

func TestIsolateRejectsGarbage(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/isolate", strings.NewReader("not an image")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIsolateRejectsBadOverrides(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/isolate?edge_threshold=abc", encodeSprite(t)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Parseable but out of range: rejected by config validation.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/isolate?border_white_ratio=5", encodeSprite(t)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
