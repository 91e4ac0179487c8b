package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
)

// Downloader fetches remote supplier lists into the data directory.
type Downloader struct {
	client   *http.Client
	dataDir  string
	progress io.Writer
}

func New(cfg *config.Config) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
		dataDir:  cfg.DataDir,
		progress: os.Stderr,
	}
}

// WithProgress sets where the progress bar is drawn; nil hides it.
func (d *Downloader) WithProgress(w io.Writer) *Downloader {
	d.progress = w
	return d
}

// IsRemote reports whether src names an http or https resource.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// DownloadFile saves rawURL below the data directory and returns the local
// path. An existing file is replaced.
func (d *Downloader) DownloadFile(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	filename := path.Base(u.Path)
	if filename == "." || filename == "/" {
		filename = "suppliers.csv"
	}
	localPath := filepath.Join(d.dataDir, filename)

	// Создаём директорию если не существует
	if err := os.MkdirAll(d.dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	// Делаем запрос
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	// Пишем во временный файл
	tmp, err := os.CreateTemp(d.dataDir, filename+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var dst io.Writer = tmp
	if d.progress != nil {
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetWriter(d.progress),
			progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", filename)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(50),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(d.progress)
			}),
			progressbar.OptionSpinnerType(14),
		)
		dst = io.MultiWriter(tmp, bar)
	}

	// Копируем с отслеживанием прогресса
	if _, err := io.Copy(dst, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	return localPath, nil
}
