package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kkdai/youtube/v2"
)

// Client is the production Backend on top of kkdai/youtube plus ffmpeg for
// muxing and audio extraction.
type Client struct {
	yt      youtube.Client
	tempDir string
	ffmpeg  string
}

// NewClient returns a backend writing scratch files into tempDir.
// ffmpeg must be on PATH.
func NewClient(tempDir string) *Client {
	return &Client{
		yt:      youtube.Client{},
		tempDir: tempDir,
		ffmpeg:  "ffmpeg",
	}
}

// FetchMetadata returns the preview metadata for one video.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, classifyError(err)
	}

	seconds := int(video.Duration.Seconds())
	meta := &VideoMetadata{
		VideoID:           video.ID,
		Title:             video.Title,
		Duration:          seconds,
		DurationFormatted: FormatDuration(seconds),
		Views:             int64(video.Views),
		ViewsFormatted:    FormatViews(int64(video.Views)),
		Author:            video.Author,
		Description:       truncate(video.Description, 300),
		Qualities:         availableQualities(video.Formats),
	}
	if len(video.Thumbnails) > 0 {
		meta.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return meta, nil
}

// Download fetches the requested variant into a scratch file and returns
// its path. Video downloads pull the video and audio streams in parallel,
// then mux; audio-only pulls the best audio stream and converts to mp3.
func (c *Client) Download(ctx context.Context, videoID, quality string, audioOnly bool, events DownloadEvents) (string, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", classifyError(err)
	}

	if audioOnly {
		return c.downloadAudio(ctx, video, events)
	}
	return c.downloadVideo(ctx, video, quality, events)
}

func (c *Client) downloadVideo(ctx context.Context, video *youtube.Video, quality string, events DownloadEvents) (string, error) {
	targetHeight := parseQualityHeight(quality)
	videoFormat := findBestVideoFormat(video.Formats, targetHeight)
	audioFormat := findBestAudioFormat(video.Formats)
	if videoFormat == nil || audioFormat == nil {
		return "", &DownloadError{Stage: "format selection", Err: fmt.Errorf("no usable format for quality %q", quality)}
	}

	token := uuid.New().String()
	videoTemp := filepath.Join(c.tempDir, "v_"+token+".mp4")
	audioTemp := filepath.Join(c.tempDir, "a_"+token+".m4a")
	defer os.Remove(videoTemp)
	defer os.Remove(audioTemp)

	track := newByteTracker(videoFormat.ContentLength+audioFormat.ContentLength, events)

	var wg sync.WaitGroup
	wg.Add(2)
	var errV, errA error
	go func() {
		defer wg.Done()
		errV = c.downloadStream(ctx, video, videoFormat, videoTemp, track)
	}()
	go func() {
		defer wg.Done()
		errA = c.downloadStream(ctx, video, audioFormat, audioTemp, track)
	}()
	wg.Wait()

	if errV != nil {
		return "", &DownloadError{Stage: "video stream", Err: errV}
	}
	if errA != nil {
		return "", &DownloadError{Stage: "audio stream", Err: errA}
	}

	// Muxing: no byte progress from here on.
	events.processing()

	out := filepath.Join(c.tempDir, "out_"+token+".mp4")
	cmd := exec.CommandContext(ctx, c.ffmpeg, "-y", "-hide_banner", "-loglevel", "error",
		"-i", videoTemp, "-i", audioTemp, "-c", "copy", out)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out)
		return "", &DownloadError{Stage: "muxing", Err: fmt.Errorf("ffmpeg: %s", strings.TrimSpace(string(outBytes)))}
	}

	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		return "", &DownloadError{Stage: "muxing", Err: errors.New("generated file is empty")}
	}
	return out, nil
}

func (c *Client) downloadAudio(ctx context.Context, video *youtube.Video, events DownloadEvents) (string, error) {
	audioFormat := findBestAudioFormat(video.Formats)
	if audioFormat == nil {
		return "", &DownloadError{Stage: "format selection", Err: errors.New("no audio format available")}
	}

	token := uuid.New().String()
	audioTemp := filepath.Join(c.tempDir, "a_"+token+".m4a")
	defer os.Remove(audioTemp)

	track := newByteTracker(audioFormat.ContentLength, events)
	if err := c.downloadStream(ctx, video, audioFormat, audioTemp, track); err != nil {
		return "", &DownloadError{Stage: "audio stream", Err: err}
	}

	events.processing()

	out := filepath.Join(c.tempDir, "audio_"+token+".mp3")
	cmd := exec.CommandContext(ctx, c.ffmpeg, "-y", "-hide_banner", "-loglevel", "error",
		"-i", audioTemp, "-vn", "-codec:a", "libmp3lame", "-b:a", "192k", out)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out)
		return "", &DownloadError{Stage: "audio extraction", Err: fmt.Errorf("ffmpeg: %s", strings.TrimSpace(string(outBytes)))}
	}

	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		return "", &DownloadError{Stage: "audio extraction", Err: errors.New("generated file is empty")}
	}
	return out, nil
}

func (c *Client) downloadStream(ctx context.Context, v *youtube.Video, f *youtube.Format, path string, track func(int)) error {
	stream, _, err := c.yt.GetStreamContext(ctx, v, f)
	if err != nil {
		return err
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			track(n)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// newByteTracker returns a callback converting byte counts into capped
// percentages. Totals of 0 (unknown ContentLength) report nothing.
func newByteTracker(totalSize int64, events DownloadEvents) func(int) {
	var mu sync.Mutex
	var currentBytes int64
	return func(n int) {
		mu.Lock()
		defer mu.Unlock()
		currentBytes += int64(n)
		if totalSize > 0 {
			pct := float64(currentBytes) / float64(totalSize) * 100
			if pct > 99.9 {
				pct = 99.9
			}
			events.progress(pct)
		}
	}
}

func findBestVideoFormat(formats youtube.FormatList, targetHeight int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, "video") {
			continue
		}
		h := parseQualityHeight(f.QualityLabel)
		if targetHeight > 0 && h == targetHeight {
			return f
		}
		if targetHeight > 0 && h > targetHeight {
			continue
		}
		if best == nil || h > parseQualityHeight(best.QualityLabel) {
			best = f
		}
	}
	if best != nil {
		return best
	}
	// Nothing at or below the target: fall back to the highest available.
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, "video") {
			continue
		}
		if best == nil || parseQualityHeight(f.QualityLabel) > parseQualityHeight(best.QualityLabel) {
			best = f
		}
	}
	return best
}

func findBestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, "audio") {
			continue
		}
		if best == nil || (strings.Contains(f.MimeType, "mp4") && !strings.Contains(best.MimeType, "mp4")) {
			best = f
		}
	}
	return best
}

// availableQualities lists the distinct video heights of the format list,
// highest first, as labels ("1080p").
func availableQualities(formats youtube.FormatList) []string {
	heights := map[int]struct{}{}
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, "video") || f.QualityLabel == "" {
			continue
		}
		if h := parseQualityHeight(f.QualityLabel); h > 0 {
			heights[h] = struct{}{}
		}
	}
	sorted := make([]int, 0, len(heights))
	for h := range heights {
		sorted = append(sorted, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	labels := make([]string, 0, len(sorted))
	for _, h := range sorted {
		labels = append(labels, fmt.Sprintf("%dp", h))
	}
	return labels
}

// classifyError maps extraction-library failures onto the adapter taxonomy.
func classifyError(err error) error {
	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return fmt.Errorf("%w: %s", ErrUnavailable, playability.Reason)
	}
	if errors.Is(err, youtube.ErrVideoIDMinLength) || errors.Is(err, youtube.ErrInvalidCharactersInVideoID) {
		return ErrInvalidURL
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "login required"), strings.Contains(msg, "private"):
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case strings.Contains(msg, "cipher") || strings.Contains(msg, "signature"):
		return &DownloadError{Stage: "extraction", Err: errors.New("source restricted access to this video")}
	case strings.Contains(msg, "403"):
		return &DownloadError{Stage: "fetch", Err: errors.New("access forbidden, source may be throttling this server")}
	default:
		return &DownloadError{Stage: "metadata", Err: err}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
