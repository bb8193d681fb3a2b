// Package transcode converts animated media between formats and sizes for a
// specific consumption context. Each call takes raw bytes plus a Profile and
// returns transcoded bytes or a classified error; format selection belongs to
// the caller.
package transcode

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"math"

	"gifswap/internal/apperror"
	"gifswap/internal/logger"

	"github.com/disintegration/imaging"
)

type Format string

const (
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatMP4  Format = "mp4"
)

// Size bands for the GIF quality tiering. Small reaction GIFs pass through
// untouched; everything larger gets a structural re-encode while it fits the
// byte ceiling; only inputs over the ceiling pay the lossy resize.
const (
	passThroughLimit = 2 << 20

	DownloadMaxBytes = 15 << 20
	StickerMaxBytes  = 500 << 10
	StickerMaxDim    = 512
)

// Profile describes one target. Constructed fresh per call; no lifecycle.
type Profile struct {
	Format       Format
	MaxBytes     int
	MaxDimension int
	Lossless     bool
}

func DownloadProfile() Profile {
	return Profile{Format: FormatGIF, MaxBytes: DownloadMaxBytes}
}

func StickerProfile() Profile {
	return Profile{Format: FormatWebP, MaxBytes: StickerMaxBytes, MaxDimension: StickerMaxDim}
}

func ClipboardProfile() Profile {
	return Profile{Format: FormatMP4}
}

// Result carries the deliverable bytes. Warning is set when even the most
// aggressive tier could not satisfy the byte ceiling and the caller got the
// best effort instead of an error.
type Result struct {
	Data     []byte
	Format   Format
	Animated bool
	Warning  string
}

type Transcoder struct {
	tempDir string
	log     *logger.Logger
}

// New creates a transcoder. tempDir scopes the throwaway files of the mp4
// path; pass "" for the system default.
func New(tempDir string) *Transcoder {
	return &Transcoder{tempDir: tempDir, log: logger.New("Transcoder")}
}

// Transcode executes exactly one target format. It fails rather than
// substituting another format when the requested codec path is unavailable;
// fallback strategy across formats belongs to the caller.
func (t *Transcoder) Transcode(ctx context.Context, input []byte, p Profile) (*Result, error) {
	if len(input) == 0 {
		return nil, apperror.New(apperror.KindCorruptedFile, "empty media input")
	}
	switch p.Format {
	case FormatGIF:
		return t.transcodeGIF(input, p)
	case FormatWebP:
		return t.transcodeSticker(input, p)
	case FormatMP4:
		return t.transcodeMP4(ctx, input, p)
	default:
		return nil, apperror.Newf(apperror.KindInvalidFormat, "unsupported target format %q", p.Format)
	}
}

// passThroughGIF reports whether the input can be delivered untouched.
func passThroughGIF(size int, p Profile) bool {
	fits := p.MaxBytes == 0 || size <= p.MaxBytes
	return size <= passThroughLimit && fits && p.MaxDimension == 0
}

// resizeFactor computes the scale factor for one GIF. 1.0 means no resize;
// below 1.0 the byte ceiling or the dimension cap demands a lossy shrink.
func resizeFactor(size, width, height int, p Profile) float64 {
	factor := 1.0
	if p.MaxBytes > 0 && size > p.MaxBytes {
		factor = math.Sqrt(float64(p.MaxBytes) / float64(size))
	}
	if p.MaxDimension > 0 {
		if d := maxInt(width, height); d > p.MaxDimension {
			if f := float64(p.MaxDimension) / float64(d); f < factor {
				factor = f
			}
		}
	}
	return factor
}

func (t *Transcoder) transcodeGIF(input []byte, p Profile) (*Result, error) {
	// Small band: no quality loss for the common reaction-GIF case.
	if passThroughGIF(len(input), p) {
		return &Result{Data: input, Format: FormatGIF, Animated: true}, nil
	}

	g, err := gif.DecodeAll(bytes.NewReader(input))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindCorruptedFile, "could not decode GIF", err)
	}

	width, height := logicalSize(g)
	factor := resizeFactor(len(input), width, height, p)

	// Inside the ceiling: structural re-encode only, no resize. The input wins
	// when the re-encode does not shrink it.
	if factor >= 1.0 {
		out, err := encodeGIF(g)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindAnimationError, "GIF re-encode failed", err)
		}
		if len(out) >= len(input) {
			out = input
		}
		return &Result{Data: out, Format: FormatGIF, Animated: true}, nil
	}

	resized := resizeGIF(g, factor)
	out, err := encodeGIF(resized)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAnimationError, "GIF resize encode failed", err)
	}
	res := &Result{Data: out, Format: FormatGIF, Animated: true}
	if p.MaxBytes > 0 && len(out) > p.MaxBytes {
		res.Warning = "output exceeds the size limit even after resizing"
	}
	return res, nil
}

func encodeGIF(g *gif.GIF) ([]byte, error) {
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func logicalSize(g *gif.GIF) (int, int) {
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}
	return w, h
}

// resizeGIF scales every frame by factor, compositing frames onto a running
// canvas first so partial-frame GIFs survive the resize. factor is expected
// to be < 1; this function never upscales.
func resizeGIF(g *gif.GIF, factor float64) *gif.GIF {
	if factor >= 1.0 {
		return g
	}
	width, height := logicalSize(g)
	newW := maxInt(1, int(float64(width)*factor))
	newH := maxInt(1, int(float64(height)*factor))

	out := &gif.GIF{
		LoopCount: g.LoopCount,
		Config: image.Config{
			ColorModel: g.Config.ColorModel,
			Width:      newW,
			Height:     newH,
		},
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		scaled := imaging.Resize(canvas, newW, newH, imaging.Lanczos)
		pal := image.NewPaletted(image.Rect(0, 0, newW, newH), frame.Palette)
		draw.FloydSteinberg.Draw(pal, pal.Bounds(), scaled, image.Point{})

		out.Image = append(out.Image, pal)
		if i < len(g.Delay) {
			out.Delay = append(out.Delay, g.Delay[i])
		} else {
			out.Delay = append(out.Delay, 0)
		}
		// Output frames are full snapshots, so disposal resets to none.
		out.Disposal = append(out.Disposal, gif.DisposalNone)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return out
}

// flattenFrames renders every frame as a full standalone image, scaled to fit
// within maxDim. Used by the sticker and mp4 paths.
func flattenFrames(g *gif.GIF, maxDim int) ([]image.Image, []int) {
	width, height := logicalSize(g)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	frames := make([]image.Image, 0, len(g.Image))
	delays := make([]int, 0, len(g.Image))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		var snapshot image.Image = imaging.Clone(canvas)
		if maxDim > 0 && maxInt(width, height) > maxDim {
			snapshot = imaging.Fit(snapshot, maxDim, maxDim, imaging.Lanczos)
		}
		frames = append(frames, snapshot)

		delay := 10 // centiseconds; default when the GIF omits timing
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = g.Delay[i]
		}
		delays = append(delays, delay*10) // to milliseconds

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return frames, delays
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
