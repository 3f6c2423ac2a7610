package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	_ "image/png" // ffmpeg frame output is piped as PNG

	"github.com/disintegration/imaging"
)

const (
	// thumbnailWidth is the fixed target width; height follows the
	// source aspect ratio.
	thumbnailWidth = 320

	// thumbnailQuality is the JPEG encode quality for derived stills.
	thumbnailQuality = 80

	// shortClipTimestamp is the sample point for clips too short to
	// seek to a midpoint safely.
	shortClipTimestamp = 0.1
)

// SampleTimestamp picks the frame-extraction point for a video of the
// given duration in seconds: the midpoint when the clip is longer than
// one second, otherwise a near-zero offset so the seek cannot land past
// the end of a very short clip.
func SampleTimestamp(duration float64) float64 {
	if duration > 1 {
		return duration / 2
	}
	return shortClipTimestamp
}

// GenerateThumbnail derives a single representative still for a stored
// video: probe the duration, extract the frame at SampleTimestamp,
// resize to a fixed width preserving aspect ratio, and encode as JPEG
// at thumbPath. Failures are recoverable; the video stays stored
// without a thumbnail and the gallery tolerates the missing file.
func GenerateThumbnail(videoPath, thumbPath string) error {
	duration, err := probeDuration(videoPath)
	if err != nil {
		logging.Debug("thumbnail: duration probe failed for %s: %v, sampling near start", videoPath, err)
		duration = 0
	}
	timestamp := SampleTimestamp(duration)

	frame, err := extractFrame(videoPath, timestamp)
	if err != nil {
		return fmt.Errorf("extract frame: %w", err)
	}

	// Width-constrained resize; imaging keeps the aspect ratio when one
	// dimension is zero. JPEG encoding yields the 3-channel output.
	thumb := imaging.Resize(frame, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	if err := os.WriteFile(thumbPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}

	logging.Debug("thumbnail written: %s (%d bytes, t=%.2fs)", thumbPath, buf.Len(), timestamp)
	return nil
}

// probeDuration returns the container duration in seconds via ffprobe.
func probeDuration(path string) (float64, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v, stderr: %s", err, stderr.String())
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", stdout.String(), err)
	}
	return duration, nil
}

// extractFrame decodes one frame at the given timestamp. The frame is
// piped out as PNG so no intermediate file is left behind; ffmpeg's
// decoder state is torn down when the process exits, succeed or fail.
func extractFrame(path string, timestamp float64) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	frame, err := runFrameExtract(path, fmt.Sprintf("%.3f", timestamp))
	if err == nil {
		return frame, nil
	}

	// Seeking can fail on near-empty or oddly indexed containers; retry
	// from the first decodable frame before giving up.
	logging.Debug("thumbnail: seek to %.2fs failed for %s: %v, retrying from start", timestamp, path, err)
	return runFrameExtract(path, "")
}

func runFrameExtract(path, seek string) (image.Image, error) {
	args := []string{}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	args = append(args,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.Command("ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg output: %w", err)
	}
	return img, nil
}
