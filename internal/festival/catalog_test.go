package festival

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCatalogEmbeddedData(t *testing.T) {
	c, err := NewCatalog("", "", discard)
	require.NoError(t, err)

	assert.NotEmpty(t, c.Festivals())
	f, ok := c.Festival("chinese-new-year")
	require.True(t, ok)
	assert.Equal(t, "农历新年", f.Name.ZH)

	on := c.LunarFestivalsOn(lunar.LunarDate{Month: 8, Day: 15})
	require.Len(t, on, 1)
	assert.Equal(t, "mid-autumn-festival", on[0].ID)
	assert.Len(t, c.LunarFestivalsIn(7), 2)
}

func TestCatalogReturnsCopies(t *testing.T) {
	c, err := NewCatalog("", "", discard)
	require.NoError(t, err)

	fs := c.Festivals()
	fs[0].ID = "changed"
	assert.NotEqual(t, "changed", c.Festivals()[0].ID)
}

func TestCatalogFromFiles(t *testing.T) {
	dir := t.TempDir()
	festivalsFile := filepath.Join(dir, "festivals.json")
	lunarFile := filepath.Join(dir, "lunar.json")
	require.NoError(t, os.WriteFile(festivalsFile, []byte(`[{"id":"a","name":{"en":"A"},"category":"local","regions":["eastern"],"date":{"month":3}}]`), 0644))
	require.NoError(t, os.WriteFile(lunarFile, []byte(`{"festivals":[{"id":"l","name":{"en":"L"},"date":{"lunar":{"month":2,"day":2}},"type":"minor"}]}`), 0644))

	c, err := NewCatalog(festivalsFile, lunarFile, discard)
	require.NoError(t, err)

	require.Len(t, c.Festivals(), 1)
	assert.Equal(t, Local, c.Festivals()[0].Category)
	require.Len(t, c.LunarFestivals(), 1)
	assert.Equal(t, Minor, c.LunarFestivals()[0].Type)
}

func TestCatalogBadFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "festivals.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0644))

	_, err := NewCatalog(bad, "", discard)
	assert.ErrorContains(t, err, "parse festivals")

	_, err = NewCatalog(filepath.Join(dir, "missing.json"), "", discard)
	assert.ErrorContains(t, err, "read festivals")
}

func TestCatalogWatchReloads(t *testing.T) {
	dir := t.TempDir()
	festivalsFile := filepath.Join(dir, "festivals.json")
	require.NoError(t, os.WriteFile(festivalsFile, []byte(`[{"id":"first"}]`), 0644))

	c, err := NewCatalog(festivalsFile, "", discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(festivalsFile, []byte(`[{"id":"broken"`), 0644))
	require.NoError(t, os.WriteFile(festivalsFile, []byte(`[{"id":"second"},{"id":"third"}]`), 0644))

	assert.Eventually(t, func() bool {
		return len(c.Festivals()) == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "second", c.Festivals()[0].ID)

	cancel()
	assert.NoError(t, <-done)
}

func TestCatalogWatchEmbeddedReturns(t *testing.T) {
	c, err := NewCatalog("", "", discard)
	require.NoError(t, err)
	assert.NoError(t, c.Watch(context.Background()))
}
