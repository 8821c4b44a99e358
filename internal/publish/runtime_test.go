package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteconfig/internal/aggregate"
	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/eventstore"
)

func TestOpenPublishesToDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Output = config.OutputConfig{Directory: filepath.Join(dir, "out"), BaseURL: "/system", Backend: config.BackendFS}
	cfg.History = config.HistoryConfig{Database: filepath.Join(dir, "history.db")}

	rt, err := Open(context.Background(), cfg, WithTrigger("test"))
	require.NoError(t, err)
	defer rt.Close()

	collector := aggregate.NewCollector()
	_, err = rt.PublishAll(context.Background(), loadSnapshot(t, siteSnapshot), collector)
	require.NoError(t, err)
	require.Equal(t, 2, collector.Len())

	data, err := os.ReadFile(filepath.Join(dir, "out", "config", "_all.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"mediaRoot":"/media"`)

	runs, err := eventstore.History(context.Background(), rt.History(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, RunResources, runs[0].Run)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Output = config.OutputConfig{Backend: "ftp"}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}
