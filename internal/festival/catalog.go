package festival

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

//go:embed data/*.json
var defaultData embed.FS

const (
	defaultFestivalsFile      = "data/festivals.json"
	defaultLunarFestivalsFile = "data/lunar_festivals.json"
)

// Catalog holds both datasets. Empty file paths select the embedded data.
type Catalog struct {
	mu        sync.RWMutex
	festivals []Festival
	lunar     []LunarFestival

	festivalsFile string
	lunarFile     string
	logger        *slog.Logger
}

// NewCatalog loads the datasets.
func NewCatalog(festivalsFile, lunarFile string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		festivalsFile: festivalsFile,
		lunarFile:     lunarFile,
		logger:        logger.With("component", "festival"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads both datasets. On error the loaded data is left untouched.
func (c *Catalog) Reload() error {
	festivals, err := loadFestivals(c.festivalsFile)
	if err != nil {
		return err
	}
	lunarFestivals, err := loadLunarFestivals(c.lunarFile)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.festivals = festivals
	c.lunar = lunarFestivals
	c.mu.Unlock()

	c.logger.Info("festival datasets loaded", "festivals", len(festivals), "lunar_festivals", len(lunarFestivals))
	return nil
}

func readDataset(path, fallback string) ([]byte, error) {
	if path == "" {
		return defaultData.ReadFile(fallback)
	}
	return os.ReadFile(path)
}

func loadFestivals(path string) ([]Festival, error) {
	data, err := readDataset(path, defaultFestivalsFile)
	if err != nil {
		return nil, fmt.Errorf("read festivals: %w", err)
	}
	var festivals []Festival
	if err := json.Unmarshal(data, &festivals); err != nil {
		return nil, fmt.Errorf("parse festivals: %w", err)
	}
	return festivals, nil
}

func loadLunarFestivals(path string) ([]LunarFestival, error) {
	data, err := readDataset(path, defaultLunarFestivalsFile)
	if err != nil {
		return nil, fmt.Errorf("read lunar festivals: %w", err)
	}
	var doc struct {
		Festivals []LunarFestival `json:"festivals"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lunar festivals: %w", err)
	}
	return doc.Festivals, nil
}

// Festivals returns a copy of the Malaysian festivals.
func (c *Catalog) Festivals() []Festival {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.festivals)
}

// Festival looks up one Malaysian festival.
func (c *Catalog) Festival(id string) (Festival, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ByID(c.festivals, id)
}

// LunarFestivals returns a copy of the lunar festivals.
func (c *Catalog) LunarFestivals() []LunarFestival {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.lunar)
}

// LunarFestivalsOn returns the lunar festivals on d.
func (c *Catalog) LunarFestivalsOn(d lunar.LunarDate) []LunarFestival {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LunarOn(c.lunar, d)
}

// LunarFestivalsIn returns the lunar festivals of a month.
func (c *Catalog) LunarFestivalsIn(month int) []LunarFestival {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LunarInMonth(c.lunar, month)
}

// Watch reloads the datasets whenever a configured file is written or
// replaced, until ctx is done. It returns immediately when both datasets are
// embedded.
func (c *Catalog) Watch(ctx context.Context) error {
	files := map[string]bool{}
	for _, f := range []string{c.festivalsFile, c.lunarFile} {
		if f != "" {
			files[filepath.Clean(f)] = true
		}
	}
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// watch directories so editors that replace files are noticed
	dirs := map[string]bool{}
	for f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Warn("festival reload failed, keeping previous data", "file", ev.Name, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("festival watcher error", "error", err)
		}
	}
}
