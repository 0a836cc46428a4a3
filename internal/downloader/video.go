package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

const cookieFileExt = ".cookies"

// ytdlpFormat asks for a merged mp4 so downstream stream inspection and
// transcription always see a single container.
const ytdlpFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// VideoDownloader shells out to yt-dlp to resolve and download the video
// behind a post page, handing it the session cookies in Netscape format.
type VideoDownloader struct {
	binary        string
	logger        *zap.Logger
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewVideoDownloader constructs a yt-dlp backed downloader.
func NewVideoDownloader(binary string, logger *zap.Logger) *VideoDownloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &VideoDownloader{binary: binary, logger: logger}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *VideoDownloader) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	d.commandRunner = runner
}

// Download runs yt-dlp for rawURL into destDir. yt-dlp picks the final
// extension, so the result is located by globbing the stem afterwards. A
// forbidden response in yt-dlp's output maps to the Blocked kind so the
// fetch gate retries under the same identity.
func (d *VideoDownloader) Download(ctx context.Context, rawURL, stem string, identity collector.Identity, destDir string) (string, error) {
	cookiePath := filepath.Join(destDir, stem+cookieFileExt)
	if err := identity.WriteNetscapeFile(cookiePath); err != nil {
		return "", transportError(rawURL, err)
	}
	defer func() {
		if err := os.Remove(cookiePath); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("failed to remove cookie file", zap.String("path", cookiePath), zap.Error(err))
		}
	}()

	args := []string{
		"--cookies", cookiePath,
		"--no-warnings",
		"-f", ytdlpFormat,
		"--merge-output-format", "mp4",
		"-o", filepath.Join(destDir, stem+".%(ext)s"),
		"--restrict-filenames",
	}
	if identity.UserAgent != "" {
		args = append(args, "--user-agent", identity.UserAgent)
	}
	args = append(args, rawURL)

	output, err := d.run(ctx, d.binary, args...)
	if err != nil {
		return "", classifyYtdlpError(rawURL, err, output)
	}

	path := findExisting(destDir, stem)
	if path == "" {
		return "", transportError(rawURL, errors.New("yt-dlp reported success but produced no file"))
	}
	return path, nil
}

func (d *VideoDownloader) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.commandRunner != nil {
		return d.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

func classifyYtdlpError(rawURL string, err error, output []byte) error {
	text := strings.ToLower(string(output))
	kind := collector.DownloadTransport
	switch {
	case strings.Contains(text, "403") || strings.Contains(text, "forbidden"):
		kind = collector.DownloadBlocked
	case strings.Contains(text, "404") || strings.Contains(text, "not found"):
		kind = collector.DownloadNotFound
	}
	return &collector.DownloadError{
		Kind: kind,
		URL:  rawURL,
		Err:  fmt.Errorf("%w: %s", err, firstLine(text)),
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
