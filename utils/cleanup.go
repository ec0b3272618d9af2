package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// ImageLookup reports whether a stored upload is referenced by a publication.
type ImageLookup func(ctx context.Context, name string) (bool, error)

// SweepOrphanUploads deletes files in dir older than minAge that no
// publication references. Files younger than minAge may belong to a request
// still in flight. Lookup failures skip the file.
func SweepOrphanUploads(ctx context.Context, dir string, minAge time.Duration, inUse ImageLookup) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := time.Now().Add(-minAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		used, err := inUse(ctx, entry.Name())
		if err != nil {
			Sugar.Warnf("upload sweeper lookup failed file=%s err=%v", entry.Name(), err)
			continue
		}
		if used {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			Sugar.Warnf("upload sweeper remove failed file=%s err=%v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// StartUploadSweeper schedules SweepOrphanUploads on a cron spec such as
// "@every 30m". An empty spec disables the sweeper and returns nil.
func StartUploadSweeper(spec, dir string, minAge time.Duration, inUse ImageLookup) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := SweepOrphanUploads(ctx, dir, minAge, inUse)
		if err != nil {
			Sugar.Errorf("upload sweeper failed: %v", err)
			return
		}
		if n > 0 {
			Sugar.Infof("upload sweeper removed %d orphaned files", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid upload sweep spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
