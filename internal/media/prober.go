// Package media derives playback metadata from raw video files using
// ffmpeg/ffprobe. Every probe runs under the caller's context so a
// wedged media tool cannot stall an upload forever.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rkuzmin/streamhub/pkg/logger"
)

// Prober extracts duration and a representative frame from a video
// file on disk.
type Prober interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
	Thumbnail(ctx context.Context, videoPath string, offsetSeconds float64, size int) ([]byte, error)
}

// FFmpegProber shells out to ffmpeg and ffprobe.
type FFmpegProber struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
}

func NewFFmpegProber() (*FFmpegProber, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	// ffprobe is optional; duration falls back to ffmpeg stderr parsing
	ffprobePath, _ := exec.LookPath("ffprobe")

	tempDir := filepath.Join(os.TempDir(), "streamhub-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &FFmpegProber{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
	}, nil
}

func (p *FFmpegProber) Duration(ctx context.Context, videoPath string) (float64, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return 0, fmt.Errorf("video file not accessible: %w", err)
	}

	if p.ffprobePath != "" {
		cmd := exec.CommandContext(ctx, p.ffprobePath,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			videoPath)

		var stdout bytes.Buffer
		cmd.Stdout = &stdout

		if err := cmd.Run(); err == nil {
			durationStr := strings.TrimSpace(stdout.String())
			if duration, err := strconv.ParseFloat(durationStr, 64); err == nil && duration > 0 {
				return duration, nil
			}
		}
	}

	return p.durationFromFFmpeg(ctx, videoPath)
}

// durationFromFFmpeg parses the "Duration: HH:MM:SS.ss" line ffmpeg
// prints to stderr.
func (p *FFmpegProber) durationFromFFmpeg(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-i", videoPath,
		"-f", "null",
		"-")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	output := stderr.String()
	durationPrefix := "Duration: "
	startIndex := strings.Index(output, durationPrefix)
	if startIndex == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}

	startIndex += len(durationPrefix)
	endIndex := strings.Index(output[startIndex:], ",")
	if endIndex == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}

	parts := strings.Split(output[startIndex:startIndex+endIndex], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", output[startIndex:startIndex+endIndex])
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	return hours*3600 + minutes*60 + seconds, nil
}

func (p *FFmpegProber) Thumbnail(ctx context.Context, videoPath string, offsetSeconds float64, size int) ([]byte, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	// a unique file per call: concurrent extractions must never share
	// an output path
	tmp, err := os.CreateTemp(p.tempDir, "frame_*.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame file: %w", err)
	}
	tempFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tempFile)

	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.2f", offsetSeconds),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", size, size),
		"-q:v", "2",
		"-f", "mjpeg",
		tempFile,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Logger.Warn("Thumbnail extraction failed",
			"video_path", videoPath,
			"stderr", stderr.String(),
		)
		return nil, fmt.Errorf("failed to extract frame at %.2f: %w", offsetSeconds, err)
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return buf.Bytes(), nil
}

func (p *FFmpegProber) Cleanup() error {
	return os.RemoveAll(p.tempDir)
}

// PlaceholderThumbnail renders the default thumbnail used when frame
// sampling fails or is disabled: a flat dark rectangle.
func PlaceholderThumbnail(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 0x2b, G: 0x2b, B: 0x33, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
