package adapt

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"testing"

	"gifswap/internal/apperror"
	"gifswap/internal/core/transcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallGIF(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{Config: image.Config{Width: 16, Height: 16}}
	for f := 0; f < 2; f++ {
		img := image.NewPaletted(image.Rect(0, 0, 16, 16), pal)
		for x := 0; x < 16; x++ {
			img.SetColorIndex(x, (x+f)%16, 1)
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 5)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func mediaServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseContext(t *testing.T) {
	for _, v := range []string{"download", "clipboard", "native-share", "sticker"} {
		c, err := ParseContext(v)
		require.NoError(t, err)
		assert.Equal(t, ShareContext(v), c)
	}
	_, err := ParseContext("email")
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}

func TestFetchClassifiesFailures(t *testing.T) {
	s := NewSelector(transcode.New(""))

	srv := mediaServer(t, http.StatusNotFound, []byte("gone"))
	_, err := s.Fetch(context.Background(), srv.URL+"/x.gif")
	assert.True(t, apperror.IsKind(err, apperror.KindFileNotFound))

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()
	_, err = s.Fetch(context.Background(), dead.URL+"/x.gif")
	assert.True(t, apperror.IsKind(err, apperror.KindNetworkError))
}

func TestAdaptDownloadDeliversGIF(t *testing.T) {
	data := smallGIF(t)
	srv := mediaServer(t, http.StatusOK, data)
	s := NewSelector(transcode.New(""))

	d, err := s.Adapt(context.Background(), srv.URL+"/result/dance.gif?sig=abc", ContextDownload)
	require.NoError(t, err)
	assert.Equal(t, data, d.Data, "small GIFs are delivered untouched")
	assert.Equal(t, "image/gif", d.MIME)
	assert.Equal(t, "dance.gif", d.Filename)
	assert.True(t, d.Animated)
	assert.Equal(t, srv.URL+"/result/dance.gif?sig=abc", d.FallbackURL)
}

func TestAdaptDownloadDegradesToURLOnFetchFailure(t *testing.T) {
	srv := mediaServer(t, http.StatusNotFound, nil)
	s := NewSelector(transcode.New(""))

	d, err := s.Adapt(context.Background(), srv.URL+"/x.gif", ContextDownload)
	require.NoError(t, err, "download degrades, it does not fail")
	assert.Empty(t, d.Data)
	assert.NotEmpty(t, d.Warning)
	assert.Equal(t, srv.URL+"/x.gif", d.FallbackURL)
}

func TestAdaptClipboardPrefersGIF(t *testing.T) {
	srv := mediaServer(t, http.StatusOK, smallGIF(t))
	s := NewSelector(transcode.New(""))

	d, err := s.Adapt(context.Background(), srv.URL+"/x.gif", ContextClipboard)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", d.MIME)
	assert.NotEmpty(t, d.Data)
	assert.Empty(t, d.FallbackText)
}

func TestAdaptClipboardFallsBackToTextOnFetchFailure(t *testing.T) {
	srv := mediaServer(t, http.StatusServiceUnavailable, nil)
	s := NewSelector(transcode.New(""))

	d, err := s.Adapt(context.Background(), srv.URL+"/x.gif", ContextClipboard)
	require.NoError(t, err)
	assert.Empty(t, d.Data)
	assert.Equal(t, srv.URL+"/x.gif", d.FallbackText, "last clipboard resort is copying the URL")
}

func TestAdaptNativeShareWarnsWhenNothingShareable(t *testing.T) {
	srv := mediaServer(t, http.StatusNotFound, nil)
	s := NewSelector(transcode.New(""))

	d, err := s.Adapt(context.Background(), srv.URL+"/x.gif", ContextNativeShare)
	require.NoError(t, err)
	assert.Empty(t, d.Data)
	assert.Equal(t, "sharing unavailable, open the GIF directly", d.Warning)
}

func TestAdaptStickerPropagatesErrors(t *testing.T) {
	s := NewSelector(transcode.New(""))

	srv := mediaServer(t, http.StatusNotFound, nil)
	_, err := s.Adapt(context.Background(), srv.URL+"/x.gif", ContextSticker)
	assert.True(t, apperror.IsKind(err, apperror.KindFileNotFound))

	garbage := mediaServer(t, http.StatusOK, []byte("not media at all"))
	_, err = s.Adapt(context.Background(), garbage.URL+"/x.gif", ContextSticker)
	assert.True(t, apperror.IsKind(err, apperror.KindCorruptedFile))
}

func TestAdaptUnknownContext(t *testing.T) {
	s := NewSelector(transcode.New(""))
	_, err := s.Adapt(context.Background(), "https://x.example/a.gif", ShareContext("fax"))
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}

func TestFilenameFor(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example/out/dance.gif":        "dance.gif",
		"https://cdn.example/out/dance.gif?sig=1":  "dance.gif",
		"https://cdn.example/out/dance.gif#frag":   "dance.gif",
		"https://cdn.example/out/clip":             "clip.gif",
		"https://cdn.example/":                     "faceswap.gif",
	}
	for in, want := range cases {
		assert.Equal(t, want, filenameFor(in, "gif"), in)
	}
}
