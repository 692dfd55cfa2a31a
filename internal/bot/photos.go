package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxPhotoBytes matches the Bot API download limit.
const maxPhotoBytes = 20 << 20

// PhotoCache downloads uploaded photos into a local directory under random
// names. The wizard run owning a file is responsible for removing it.
type PhotoCache struct {
	bot    Sender
	dir    string
	client *http.Client
	logger *zap.Logger
}

func NewPhotoCache(bot Sender, dir string, client *http.Client, logger *zap.Logger) *PhotoCache {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoCache{bot: bot, dir: dir, client: client, logger: logger.Named("photos")}
}

func (c *PhotoCache) Fetch(ctx context.Context, fileID string) (string, error) {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	path := filepath.Join(c.dir, uuid.NewString()+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create cache file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxPhotoBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write cache file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close cache file: %w", closeErr)
	case n == 0:
		err = fmt.Errorf("download file: empty body")
	case n > maxPhotoBytes:
		err = fmt.Errorf("download file: larger than %d bytes", maxPhotoBytes)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}

	c.logger.Debug("Photo cached", zap.String("path", path), zap.Int64("bytes", n))
	return path, nil
}
