package adapt

import (
	"encoding/base64"
	"fmt"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/core/swap"
	"gifswap/internal/core/transcode"
	"gifswap/internal/platform/api"
	"gifswap/internal/platform/storage"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	selector *Selector
	storage  *storage.Service
}

func NewHandler(selector *Selector, store *storage.Service) *Handler {
	return &Handler{selector: selector, storage: store}
}

func classifiedError(c *fiber.Ctx, err error) error {
	e := apperror.Classify(err)
	return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
}

// HandleOptimize serves the download-context optimization: GIF capped at 15MB.
func (h *Handler) HandleOptimize(c *fiber.Ctx) error {
	var req api.OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return classifiedError(c, apperror.New(apperror.KindBadRequest, "invalid body"))
	}
	if err := swap.ValidateTargetURL(req.GifUrl); err != nil {
		return classifiedError(c, err)
	}

	original, err := h.selector.Fetch(c.Context(), req.GifUrl)
	if err != nil {
		return classifiedError(c, err)
	}
	out, warning := original, ""
	if res, terr := h.selector.transcoder.Transcode(c.Context(), original, transcode.DownloadProfile()); terr == nil {
		out, warning = res.Data, res.Warning
	} else {
		// Deliver the original rather than erroring out of an optimization.
		warning = "delivered without optimization"
	}

	filename := filenameFor(req.GifUrl, "gif")
	return c.JSON(api.OptimizeResponse{
		Success:       true,
		OptimizedGif:  dataURL("image/gif", out),
		Format:        "gif",
		OriginalSize:  len(original),
		OptimizedSize: len(out),
		Warning:       warning,
		PublicURL:     h.upload(filename, out, "image/gif"),
	})
}

// HandleOptimizeOriginal passes the media through at full quality.
func (h *Handler) HandleOptimizeOriginal(c *fiber.Ctx) error {
	var req api.OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return classifiedError(c, apperror.New(apperror.KindBadRequest, "invalid body"))
	}
	if err := swap.ValidateTargetURL(req.GifUrl); err != nil {
		return classifiedError(c, err)
	}

	data, err := h.selector.Fetch(c.Context(), req.GifUrl)
	if err != nil {
		return classifiedError(c, err)
	}
	return c.JSON(api.OptimizeResponse{
		Success:       true,
		OptimizedGif:  dataURL("image/gif", data),
		Format:        "gif",
		OriginalSize:  len(data),
		OptimizedSize: len(data),
	})
}

// HandleCreateSticker serves the sticker context: animated WebP, 500KB/512px.
func (h *Handler) HandleCreateSticker(c *fiber.Ctx) error {
	var req api.StickerRequest
	if err := c.BodyParser(&req); err != nil {
		return classifiedError(c, apperror.New(apperror.KindBadRequest, "invalid body"))
	}
	if err := swap.ValidateTargetURL(req.GifUrl); err != nil {
		return classifiedError(c, err)
	}

	d, err := h.selector.Adapt(c.Context(), req.GifUrl, ContextSticker)
	if err != nil {
		return classifiedError(c, err)
	}

	meta := api.StickerMetadata{PackName: req.PackName, Author: req.Author}
	if meta.PackName == "" {
		meta.PackName = "Face Swaps"
	}
	if meta.Author == "" {
		meta.Author = "gifswap"
	}
	return c.JSON(api.StickerResponse{
		Success:     true,
		Sticker:     dataURL("image/webp", d.Data),
		Format:      "webp",
		StickerSize: len(d.Data),
		Animated:    d.Animated,
		Metadata:    meta,
		Warning:     d.Warning,
		PublicURL:   h.upload(d.Filename, d.Data, "image/webp"),
	})
}

// HandleAdapt is the generalized context endpoint (clipboard, native-share).
func (h *Handler) HandleAdapt(c *fiber.Ctx) error {
	var req api.AdaptRequest
	if err := c.BodyParser(&req); err != nil {
		return classifiedError(c, apperror.New(apperror.KindBadRequest, "invalid body"))
	}
	if err := swap.ValidateTargetURL(req.GifUrl); err != nil {
		return classifiedError(c, err)
	}
	sc, err := ParseContext(req.Context)
	if err != nil {
		return classifiedError(c, err)
	}

	d, err := h.selector.Adapt(c.Context(), req.GifUrl, sc)
	if err != nil {
		return classifiedError(c, err)
	}
	resp := api.AdaptResponse{
		Success:      true,
		Mime:         d.MIME,
		Filename:     d.Filename,
		Warning:      d.Warning,
		FallbackURL:  d.FallbackURL,
		FallbackText: d.FallbackText,
	}
	if len(d.Data) > 0 {
		resp.Data = dataURL(d.MIME, d.Data)
	}
	return c.JSON(resp)
}

// HandleDownload streams the raw GIF bytes with an attachment disposition.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	gifURL := c.Query("url")
	if err := swap.ValidateTargetURL(gifURL); err != nil {
		return classifiedError(c, err)
	}

	data, err := h.selector.Fetch(c.Context(), gifURL)
	if err != nil {
		return classifiedError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/gif")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filenameFor(gifURL, "gif")))
	return c.Send(data)
}

// upload is best effort artifact hosting; failures only cost the public URL.
func (h *Handler) upload(filename string, data []byte, mimeType string) string {
	if h.storage == nil || !h.storage.Enabled() || len(data) == 0 {
		return ""
	}
	name := time.Now().Format("20060102_150405") + "_" + storage.SanitizeName(filename)
	url, err := h.storage.Upload(name, data, mimeType)
	if err != nil {
		return ""
	}
	return url
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
