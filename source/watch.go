package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/ssungjun83/Order-Dashboard/logging"
)

// Change is reported after the watched workbook was modified and its cache entry dropped.
type Change struct {
	Path string
	Op   fsnotify.Op
	At   time.Time
}

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watch invalidates the cache entry for path whenever the file changes and reports each
// change on the returned channel. The parent directory is watched so that editors that
// replace the file by rename are noticed. The channel closes when ctx is done.
func Watch(ctx context.Context, cache *Cache, path string, log logrus.FieldLogger) (<-chan Change, error) {
	log = logging.OrDiscard(log)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	changes := make(chan Change, 16)
	go func() {
		defer close(changes)
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&relevantOps == 0 {
					continue
				}
				cache.Invalidate(path)
				log.WithFields(logrus.Fields{"path": path, "op": event.Op.String()}).Info("workbook changed")
				select {
				case changes <- Change{Path: path, Op: event.Op, At: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("watcher error")
			}
		}
	}()
	return changes, nil
}

// Resolve expands a glob pattern (with ** support) to the most recently modified
// matching .xlsx file. A pattern without meta characters is returned as is.
func Resolve(pattern string) (string, error) {
	if !hasMeta(pattern) {
		return pattern, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	type candidate struct {
		path     string
		modified time.Time
	}
	var found []candidate
	for _, match := range matches {
		if filepath.Ext(match) != ".xlsx" {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, candidate{path: match, modified: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no workbook matches %s", pattern)
	}
	sort.SliceStable(found, func(i, j int) bool {
		if !found[i].modified.Equal(found[j].modified) {
			return found[i].modified.After(found[j].modified)
		}
		return found[i].path < found[j].path
	})
	return found[0].path, nil
}

func hasMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
