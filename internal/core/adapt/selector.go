// Package adapt picks a transcoding strategy per consumption context and
// walks a defined fallback ladder when a step fails. Every ladder ends in
// something the user can always act on: the raw media URL.
package adapt

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/core/transcode"
	"gifswap/internal/logger"
)

// ShareContext tags how the result will be consumed.
type ShareContext string

const (
	ContextDownload    ShareContext = "download"
	ContextClipboard   ShareContext = "clipboard"
	ContextNativeShare ShareContext = "native-share"
	ContextSticker     ShareContext = "sticker"
)

func ParseContext(v string) (ShareContext, error) {
	switch ShareContext(v) {
	case ContextDownload, ContextClipboard, ContextNativeShare, ContextSticker:
		return ShareContext(v), nil
	default:
		return "", apperror.Newf(apperror.KindBadRequest, "unknown share context %q", v)
	}
}

// Deliverable is the adapted output. Data may be empty when the ladder
// degraded all the way to a fallback; FallbackURL is always set so the caller
// can open the raw media as a last resort.
type Deliverable struct {
	Data         []byte
	MIME         string
	Filename     string
	Animated     bool
	Warning      string
	FallbackURL  string
	FallbackText string
}

type Selector struct {
	transcoder *transcode.Transcoder
	http       *http.Client
	log        *logger.Logger
}

func NewSelector(t *transcode.Transcoder) *Selector {
	return &Selector{
		transcoder: t,
		http:       &http.Client{Timeout: 60 * time.Second},
		log:        logger.New("Adapt"),
	}
}

// Fetch downloads the completed result media.
func (s *Selector) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, "invalid media URL", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperror.ClassifyResponse(resp.StatusCode, body)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return data, nil
}

// Adapt turns a completed result URL into deliverable bytes for the given
// context. Only the sticker context can fail outright (its chain ends in a
// classified error); every other context degrades into a usable fallback.
func (s *Selector) Adapt(ctx context.Context, mediaURL string, c ShareContext) (*Deliverable, error) {
	switch c {
	case ContextDownload:
		return s.adaptDownload(ctx, mediaURL), nil
	case ContextClipboard:
		return s.adaptClipboard(ctx, mediaURL), nil
	case ContextNativeShare:
		return s.adaptNativeShare(ctx, mediaURL), nil
	case ContextSticker:
		return s.adaptSticker(ctx, mediaURL)
	default:
		return nil, apperror.Newf(apperror.KindBadRequest, "unknown share context %q", c)
	}
}

// download: GIF as-is, resized only when it exceeds the 15MB download cap.
func (s *Selector) adaptDownload(ctx context.Context, mediaURL string) *Deliverable {
	d := &Deliverable{FallbackURL: mediaURL}
	data, err := s.Fetch(ctx, mediaURL)
	if err != nil {
		s.log.LogWarnf("download fetch failed for %s: %v", mediaURL, err)
		d.Warning = apperror.Describe(apperror.KindOf(err)).Message
		return d
	}
	res, err := s.transcoder.Transcode(ctx, data, transcode.DownloadProfile())
	if err != nil {
		// Deliver the original rather than leaving the user empty-handed.
		s.log.LogWarnf("download transcode failed for %s: %v", mediaURL, err)
		d.Data, d.MIME, d.Filename = data, "image/gif", filenameFor(mediaURL, "gif")
		d.Animated = true
		d.Warning = "delivered without optimization"
		return d
	}
	d.Data, d.MIME, d.Filename = res.Data, "image/gif", filenameFor(mediaURL, "gif")
	d.Animated, d.Warning = res.Animated, res.Warning
	return d
}

// clipboard: prefer a format clipboard APIs accept (GIF, then MP4); the
// terminal fallback is copying the plain URL as text.
func (s *Selector) adaptClipboard(ctx context.Context, mediaURL string) *Deliverable {
	d := &Deliverable{FallbackURL: mediaURL}
	data, err := s.Fetch(ctx, mediaURL)
	if err != nil {
		s.log.LogWarnf("clipboard fetch failed for %s: %v", mediaURL, err)
		d.FallbackText = mediaURL
		return d
	}
	if res, err := s.transcoder.Transcode(ctx, data, transcode.DownloadProfile()); err == nil {
		d.Data, d.MIME, d.Filename = res.Data, "image/gif", filenameFor(mediaURL, "gif")
		d.Animated, d.Warning = res.Animated, res.Warning
		return d
	}
	if res, err := s.transcoder.Transcode(ctx, data, transcode.ClipboardProfile()); err == nil {
		d.Data, d.MIME, d.Filename = res.Data, "video/mp4", filenameFor(mediaURL, "mp4")
		d.Animated, d.Warning = res.Animated, res.Warning
		return d
	}
	s.log.LogWarnf("clipboard transcodes failed for %s, falling back to text", mediaURL)
	d.FallbackText = mediaURL
	return d
}

// native-share: a shareable file, degrading to a plain download, then to
// opening the raw URL.
func (s *Selector) adaptNativeShare(ctx context.Context, mediaURL string) *Deliverable {
	d := s.adaptDownload(ctx, mediaURL)
	if len(d.Data) == 0 {
		// No bytes at all; the raw URL open is the last resort and the caller
		// must tell the user about it.
		d.Warning = "sharing unavailable, open the GIF directly"
	}
	return d
}

// sticker: animated WebP under 500KB/512px via the transcoder's tier chain.
func (s *Selector) adaptSticker(ctx context.Context, mediaURL string) (*Deliverable, error) {
	data, err := s.Fetch(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	res, err := s.transcoder.Transcode(ctx, data, transcode.StickerProfile())
	if err != nil {
		return nil, err
	}
	return &Deliverable{
		Data:        res.Data,
		MIME:        "image/webp",
		Filename:    filenameFor(mediaURL, "webp"),
		Animated:    res.Animated,
		Warning:     res.Warning,
		FallbackURL: mediaURL,
	}, nil
}

func filenameFor(mediaURL, ext string) string {
	base := ""
	if u, err := url.Parse(mediaURL); err == nil {
		base = path.Base(u.Path)
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "faceswap"
	}
	return base + "." + ext
}
