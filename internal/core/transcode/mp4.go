package transcode

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"gifswap/internal/apperror"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// transcodeMP4 converts an animated GIF to an MP4 container via ffmpeg. The
// temp directory is removed on success and failure alike. When ffmpeg is not
// installed the call fails with a classified error; substituting another
// format is the caller's decision.
func (t *Transcoder) transcodeMP4(ctx context.Context, input []byte, p Profile) (*Result, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, apperror.New(apperror.KindAnimationError, "mp4 encoding unavailable: ffmpeg not installed")
	}

	dir, err := os.MkdirTemp(t.tempDir, "gifswap-mp4-*")
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMemoryError, "could not create temp dir", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.gif")
	out := filepath.Join(dir, "output.mp4")
	if err := os.WriteFile(in, input, 0o644); err != nil {
		return nil, apperror.Wrap(apperror.KindMemoryError, "could not write temp input", err)
	}

	select {
	case <-ctx.Done():
		return nil, apperror.Wrap(apperror.KindTimeoutError, "mp4 transcode abandoned", ctx.Err())
	default:
	}

	// yuv420p plus even dimensions keeps the output playable everywhere.
	err = ffmpeg_go.Input(in).
		Output(out, ffmpeg_go.KwArgs{
			"movflags": "faststart",
			"pix_fmt":  "yuv420p",
			"vf":       "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAnimationError, "mp4 encode failed", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAnimationError, "mp4 output missing", err)
	}
	res := &Result{Data: data, Format: FormatMP4, Animated: true}
	if p.MaxBytes > 0 && len(data) > p.MaxBytes {
		res.Warning = "output exceeds the size limit"
	}
	return res, nil
}
