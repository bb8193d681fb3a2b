package transcode

import (
	"bytes"
	"image"
	"image/gif"

	"gifswap/internal/apperror"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/sizeofint/webpanimation"
)

// transcodeSticker produces a square-fit animated WebP under the sticker
// ceiling. The fallback chain runs every tier in order before giving up:
// full-quality animated encode, single-pass animated encode, static
// first-frame encode, classified error.
func (t *Transcoder) transcodeSticker(input []byte, p Profile) (*Result, error) {
	maxDim := p.MaxDimension
	if maxDim <= 0 {
		maxDim = StickerMaxDim
	}
	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = StickerMaxBytes
	}

	g, err := gif.DecodeAll(bytes.NewReader(input))
	if err != nil {
		// Not an animated GIF; a plain decodable image still gets a static
		// sticker rather than a hard failure.
		img, _, derr := image.Decode(bytes.NewReader(input))
		if derr != nil {
			return nil, apperror.Wrap(apperror.KindCorruptedFile, "could not decode sticker input", err)
		}
		return t.staticSticker(img, maxDim, maxBytes)
	}

	frames, delays := flattenFrames(g, maxDim)
	if len(frames) == 0 {
		return nil, apperror.New(apperror.KindCorruptedFile, "GIF contains no frames")
	}

	// Tier 1: full-quality animated encode, with one lower-quality retry when
	// the result blows the byte ceiling.
	if data, err := encodeAnimatedWebP(frames, delays, 75, false); err == nil {
		if len(data) > maxBytes {
			if retry, rerr := encodeAnimatedWebP(frames, delays, 40, false); rerr == nil {
				data = retry
			}
		}
		return stickerResult(data, true, maxBytes), nil
	} else {
		t.log.LogWarnf("animated sticker encode failed, trying single-pass: %v", err)
	}

	// Tier 2: simpler single-pass encode.
	if data, err := encodeAnimatedWebP(frames, delays, 50, true); err == nil {
		return stickerResult(data, true, maxBytes), nil
	} else {
		t.log.LogWarnf("single-pass sticker encode failed, trying static: %v", err)
	}

	// Tier 3: static first frame.
	return t.staticSticker(frames[0], maxDim, maxBytes)
}

func (t *Transcoder) staticSticker(img image.Image, maxDim, maxBytes int) (*Result, error) {
	b := img.Bounds()
	if maxInt(b.Dx(), b.Dy()) > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 80}); err != nil {
		return nil, apperror.Wrap(apperror.KindAnimationError, "static sticker encode failed", err)
	}
	return stickerResult(buf.Bytes(), false, maxBytes), nil
}

func stickerResult(data []byte, animated bool, maxBytes int) *Result {
	res := &Result{Data: data, Format: FormatWebP, Animated: animated}
	if len(data) > maxBytes {
		// Best effort over the ceiling is still returned; downstream decides
		// whether a slightly oversized sticker is acceptable.
		res.Warning = "sticker exceeds the size limit even at lowest quality"
	}
	return res
}

// encodeAnimatedWebP encodes frames into one animated WebP. singlePass
// selects the cheapest encoder settings for the degraded tier.
func encodeAnimatedWebP(frames []image.Image, delays []int, quality float32, singlePass bool) (data []byte, err error) {
	defer func() {
		// The encoder is a cgo binding; a panic in it must come back as an
		// error so the fallback chain can continue.
		if r := recover(); r != nil {
			err = apperror.Newf(apperror.KindAnimationError, "webp encoder panic: %v", r)
		}
	}()

	b := frames[0].Bounds()
	anim := webpanimation.NewWebpAnimation(b.Dx(), b.Dy(), 0)
	defer anim.ReleaseMemory()
	anim.WebPAnimEncoderOptions.SetKmin(9)
	anim.WebPAnimEncoderOptions.SetKmax(17)

	cfg := webpanimation.NewWebpConfig()
	cfg.SetLossless(0)
	cfg.SetQuality(quality)
	if singlePass {
		cfg.SetMethod(0)
	}

	timeline := 0
	for i, frame := range frames {
		if err := anim.AddFrame(frame, timeline, cfg); err != nil {
			return nil, err
		}
		timeline += delays[i]
	}
	// Closing nil frame fixes the last frame's duration.
	if err := anim.AddFrame(nil, timeline, cfg); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := anim.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
