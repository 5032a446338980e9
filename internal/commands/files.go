package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/database"
)

// assetCache downloads transport files at most once per (file, user, chat),
// keeping the bytes on local disk and the location in the assets table.
type assetCache struct {
	store database.Store
	dir   string
}

func newAssetCache(store database.Store, dir string) *assetCache {
	return &assetCache{store: store, dir: dir}
}

// fetch returns the raw bytes of a transport file, downloading and caching
// on first use. A stale cache entry whose file vanished falls back to a
// fresh download.
func (c *assetCache) fetch(ctx context.Context, messaging core.MessagingService, fileID, userID, chatID string) ([]byte, error) {
	if path, err := c.store.GetAsset(ctx, fileID, userID, chatID); err == nil && path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	name, data, err := messaging.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", fileID, err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return data, nil
	}

	ext := filepath.Ext(name)
	path := filepath.Join(c.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return data, nil
	}

	if err := c.store.SaveAsset(ctx, fileID, userID, chatID, path); err != nil {
		return data, nil
	}

	return data, nil
}
