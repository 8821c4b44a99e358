package commands

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/publish"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

const testSnapshot = `
publications:
  - {id: "1", title: "Root", path: "/root"}
  - {id: "5", title: "Master", path: "/", siteId: "s1", masterWeb: true, parents: ["1"], multimediaUrl: "/media"}
  - {id: "6", title: "German", path: "/de", siteId: "s1", parents: ["5"]}
records:
  - id: "1000"
    title: "Core Configuration"
    fields:
      modules: ["10"]
  - id: "10"
    title: "Core Module Configuration"
    folder: ["Building Blocks", "Modules", "Core", "Admin"]
    fields:
      furtherConfiguration: ["110"]
      resource: ["150"]
  - id: "110"
    title: "Localization Configuration"
    fields:
      settings:
        - {name: language, value: en}
  - id: "150"
    title: "Core Resources"
    fields:
      core.hello: "Hello"
`

const testConfig = `
snapshot:
  path: snapshot.yaml
publication:
  id: "5"
  core_config: "1000"
output:
  directory: out
  base_url: /system
history:
  database: history.db
`

func setup(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.yaml"), []byte(testSnapshot), 0o600))
	path := filepath.Join(dir, "siteconfig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return path, cfg
}

func testGlobal() (*Global, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Global{Out: &buf}, &buf
}

func TestRunPublishAppendsToReport(t *testing.T) {
	path, cfg := setup(t)
	dir := filepath.Dir(path)
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(report, []byte(`{"name":"Earlier","status":"Success","files":[]}`), 0o600))

	g, out := testGlobal()
	err := RunPublish(context.Background(), g, cfg, RunFlags{Report: report},
		(*publish.Publisher).PublishConfiguration, (*publish.Publisher).PublishResources)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rows []publish.Report
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)
	require.Equal(t, "Earlier", rows[0].Name)
	require.Equal(t, publish.RunConfiguration, rows[1].Name)
	require.Equal(t, publish.RunResources, rows[2].Name)
	require.Equal(t, string(data)+"\n", out.String())

	all, err := os.ReadFile(filepath.Join(dir, "out", "config", "_all.json"))
	require.NoError(t, err)
	require.Contains(t, string(all), `{"id":"6","path":"/de","language":"en","isMaster":false}`)
}

func TestRunPublishKeepsEarlierRowsWhenLaterRunFails(t *testing.T) {
	path, cfg := setup(t)
	report := filepath.Join(filepath.Dir(path), "report.json")

	aborted := stderrors.New("resources aborted")
	failing := func(*publish.Publisher, context.Context, *snapshot.Snapshot, publish.Sink) (publish.Outcome, error) {
		return publish.Outcome{}, aborted
	}

	g, out := testGlobal()
	err := RunPublish(context.Background(), g, cfg, RunFlags{Report: report},
		(*publish.Publisher).PublishConfiguration, failing)
	require.ErrorIs(t, err, aborted)
	require.Empty(t, out.String())

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rows []publish.Report
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	require.Equal(t, publish.RunConfiguration, rows[0].Name)
	require.Equal(t, "Success", rows[0].Status)
}

func TestRunPublishDryRunWritesNothing(t *testing.T) {
	path, cfg := setup(t)
	dir := filepath.Dir(path)
	report := filepath.Join(dir, "report.json")

	g, out := testGlobal()
	require.NoError(t, RunPublish(context.Background(), g, cfg, RunFlags{DryRun: true, Report: report},
		(*publish.Publisher).PublishResources))

	require.NoFileExists(t, report)
	require.NoDirExists(t, filepath.Join(dir, "out", "resources"))
	require.JSONEq(t, `{"name":"Publish Resources","status":"Success","files":["/system/resources/core.json","/system/resources/_all.json"]}`, out.String())
}

func TestRunResolve(t *testing.T) {
	_, cfg := setup(t)
	g, out := testGlobal()
	require.NoError(t, RunResolve(context.Background(), g, cfg, "6", "110"))
	require.JSONEq(t, `{
		"publication": "6",
		"master": "5",
		"siteLocalizations": [
			{"id": "5", "path": "/", "language": "en", "isMaster": true},
			{"id": "6", "path": "/de", "language": "en", "isMaster": false}
		]
	}`, out.String())

	err := RunResolve(context.Background(), g, cfg, "404", "")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siteconfig.yaml")
	g, out := testGlobal()
	require.NoError(t, RunInit(g, path, false))
	require.FileExists(t, path)
	require.Contains(t, out.String(), "initialized successfully")
	require.Error(t, RunInit(g, path, false))
}

func TestRunHistory(t *testing.T) {
	_, cfg := setup(t)
	g, _ := testGlobal()
	require.NoError(t, RunPublish(context.Background(), g, cfg, RunFlags{}, (*publish.Publisher).PublishConfiguration))

	g, out := testGlobal()
	require.NoError(t, RunHistory(context.Background(), g, cfg, &HistoryCmd{Limit: 5, JSON: true}))
	var runs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	require.Equal(t, "completed", runs[0]["status"])

	runID, ok := runs[0]["run_id"].(string)
	require.True(t, ok)
	g, out = testGlobal()
	require.NoError(t, RunHistory(context.Background(), g, cfg, &HistoryCmd{RunID: runID}))
	require.Contains(t, out.String(), "RunStarted")
	require.Contains(t, out.String(), "RunCompleted")

	err := RunHistory(context.Background(), g, cfg, &HistoryCmd{RunID: "missing"})
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	cfg.History.Database = ""
	require.Error(t, RunHistory(context.Background(), g, cfg, &HistoryCmd{}))
}

func TestCLIParsesAndRuns(t *testing.T) {
	path, _ := setup(t)
	report := filepath.Join(filepath.Dir(path), "report.json")

	var cli CLI
	g, out := testGlobal()
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Bind(g), kong.Exit(func(int) {}))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"-c", path, "--log-level", "error", "resources", "--report", report})
	require.NoError(t, err)
	require.NoError(t, ctx.Run(g, &cli))
	require.FileExists(t, report)
	require.Contains(t, out.String(), publish.RunResources)
	require.NotNil(t, g.Logger)
}

func TestLoadConfigAppliesLoggingSection(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path, _ := setup(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, []byte("logging:\n  level: debug\n  format: json\n")...)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var logs bytes.Buffer
	g := &Global{Out: &bytes.Buffer{}, Log: &logs}
	cli := &CLI{Config: path}
	require.NoError(t, cli.AfterApply(g))
	_, err = cli.loadConfig(g)
	require.NoError(t, err)

	g.Logger.Debug("Configuration loaded", "path", path)
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &line))
	require.Equal(t, "DEBUG", line["level"])
	require.Equal(t, "Configuration loaded", line["msg"])

	logs.Reset()
	cli = &CLI{Config: path, LogFormat: "text", LogLevel: "info"}
	_, err = cli.loadConfig(g)
	require.NoError(t, err)
	g.Logger.Debug("hidden")
	g.Logger.Info("Configuration loaded")
	require.NotContains(t, logs.String(), "hidden")
	require.Contains(t, logs.String(), "level=INFO msg=\"Configuration loaded\"")
}
