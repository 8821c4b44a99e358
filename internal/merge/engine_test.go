package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/records"
)

type fakeTopology struct {
	env    string
	search map[string]string
	err    error
	calls  int
}

func (f *fakeTopology) EnvironmentURL(context.Context) (string, error) {
	f.calls++
	return f.env, f.err
}

func (f *fakeTopology) SearchQueryURL(_ context.Context, publication, purpose string) (string, error) {
	f.calls++
	return f.search[publication+"/"+purpose], f.err
}

func rec(t *testing.T, id, title, fields string) records.Record {
	t.Helper()
	r := records.Record{ID: id, Title: title}
	if fields != "" {
		require.NoError(t, yaml.Unmarshal([]byte(fields), &r.Fields))
	}
	return r
}

func newEngine(topo *fakeTopology, buf *bytes.Buffer) *Engine {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if topo == nil {
		return NewEngine(nil, logger, nil)
	}
	return NewEngine(topo, logger, nil)
}

func TestKindFromTitle(t *testing.T) {
	require.Equal(t, KindEnvironment, KindFromTitle("Environment Configuration"))
	require.Equal(t, KindSearch, KindFromTitle("Search Configuration"))
	require.Equal(t, KindLocalization, KindFromTitle("Localization Configuration"))
	require.Equal(t, KindGeneric, KindFromTitle("environment configuration"))
	require.Equal(t, "search", KindSearch.String())
}

func TestMergeLastWriteWins(t *testing.T) {
	var buf bytes.Buffer
	sources := Classify([]records.Record{
		rec(t, "1", "Site", "K: a\nfirst: x\n"),
		rec(t, "2", "More", "K: b\nsecond: y\n"),
	})
	res, err := newEngine(nil, &buf).MergeModuleConfig(context.Background(), sources, Options{})
	require.NoError(t, err)

	v, ok := res.Data.Get("K")
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, []string{"K", "first", "second"}, res.Data.Keys())
	require.Nil(t, res.Localization)

	out, err := json.Marshal(res.Data)
	require.NoError(t, err)
	require.Equal(t, `{"K":"b","first":"x","second":"y"}`, string(out))
}

func TestMergeEnvironmentOverride(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{env: "http://new"}
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: http://old\n")})

	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.NoError(t, err)
	v, _ := res.Data.Get(KeyCMSURL)
	require.Equal(t, "http://new", v)
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), "Overriding 'cmsurl'")
}

func TestMergeEnvironmentOverrideWithoutExistingValue(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{env: "http://new"}
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: \"\"\nother: v\n")})

	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.NoError(t, err)
	v, _ := res.Data.Get(KeyCMSURL)
	require.Equal(t, "http://new", v)
	require.Contains(t, buf.String(), "level=INFO")
	require.NotContains(t, buf.String(), "level=WARN")
}

func TestMergeEnvironmentGateDisabled(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{env: "http://new"}
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: http://old\n")})

	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{})
	require.NoError(t, err)
	v, _ := res.Data.Get(KeyCMSURL)
	require.Equal(t, "http://old", v)
	require.Zero(t, topo.calls)
}

func TestMergeEnvironmentOverrideBeatsLaterSources(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{env: "http://topology"}
	sources := Classify([]records.Record{
		rec(t, "1", "Site", "cmsurl: http://first\n"),
		rec(t, "2", TitleEnvironment, "cmsurl: http://env\n"),
	})
	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.NoError(t, err)
	v, _ := res.Data.Get(KeyCMSURL)
	require.Equal(t, "http://topology", v)
}

func TestMergeEnvironmentEmptyLookupStillOverrides(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{}
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: http://old\n")})

	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.NoError(t, err)
	v, ok := res.Data.Get(KeyCMSURL)
	require.True(t, ok)
	require.Empty(t, v)
	require.Contains(t, buf.String(), "No CM Website URL")
}

func TestMergeSearchURL(t *testing.T) {
	cases := []struct {
		name    string
		xpm     bool
		wantKey string
		other   string
	}{
		{"live", false, KeyLiveIndexConfig, KeyStagingIndexConfig},
		{"staging", true, KeyStagingIndexConfig, KeyLiveIndexConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			topo := &fakeTopology{search: map[string]string{"5/Live": "https://search"}}
			sources := Classify([]records.Record{rec(t, "1", TitleSearch, "queryURL: old\n")})
			res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources,
				Options{Publication: "5", EnvironmentPurpose: "Live", XPMEnabled: tc.xpm})
			require.NoError(t, err)

			q, _ := res.Data.Get(KeySearchQueryURL)
			require.Equal(t, "https://search", q)
			idx, ok := res.Data.Get(tc.wantKey)
			require.True(t, ok)
			require.Equal(t, "https://search", idx)
			_, ok = res.Data.Get(tc.other)
			require.False(t, ok)
		})
	}
}

func TestMergeSearchURLMissingKeepsValues(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{}
	sources := Classify([]records.Record{rec(t, "1", TitleSearch, "queryURL: old\n")})
	res, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources,
		Options{Publication: "5", EnvironmentPurpose: "Live"})
	require.NoError(t, err)
	q, _ := res.Data.Get(KeySearchQueryURL)
	require.Equal(t, "old", q)
	require.Equal(t, 1, res.Data.Len())
	require.Contains(t, buf.String(), "No Search Query URL")
}

func TestMergeSearchWithoutPurposeSkipsLookup(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{}
	sources := Classify([]records.Record{rec(t, "1", TitleSearch, "queryURL: old\n")})
	_, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{})
	require.NoError(t, err)
	require.Zero(t, topo.calls)
}

func TestMergeRemembersLastLocalization(t *testing.T) {
	var buf bytes.Buffer
	sources := Classify([]records.Record{
		rec(t, "1", TitleLocalization, "settings:\n  - {name: language, value: en}\n"),
		rec(t, "2", "Site", "a: b\n"),
		rec(t, "3", TitleLocalization, "settings:\n  - {name: language, value: de}\n"),
	})
	res, err := newEngine(nil, &buf).MergeModuleConfig(context.Background(), sources, Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Localization)
	require.Equal(t, "3", res.Localization.ID)
	v, _ := res.Data.Get("language")
	require.Equal(t, "de", v)
}

func TestMergeInvalidSourceFailsWhole(t *testing.T) {
	var buf bytes.Buffer
	sources := Classify([]records.Record{
		rec(t, "1", "Site", "a: b\n"),
		rec(t, "2", "Broken", "[1, 2]\n"),
	})
	res, err := newEngine(nil, &buf).MergeModuleConfig(context.Background(), sources, Options{})
	require.ErrorIs(t, err, errors.ErrInvalidSource)
	require.Nil(t, res.Data)
}

func TestMergeTopologyErrorPropagates(t *testing.T) {
	var buf bytes.Buffer
	topo := &fakeTopology{err: errors.NetworkError("down").Build()}
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: x\n")})
	_, err := newEngine(topo, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestMergeOverrideWithoutTopology(t *testing.T) {
	var buf bytes.Buffer
	sources := Classify([]records.Record{rec(t, "1", TitleEnvironment, "cmsurl: x\n")})
	_, err := newEngine(nil, &buf).MergeModuleConfig(context.Background(), sources, Options{OverrideCMSURL: true})
	require.True(t, errors.HasCategory(err, errors.CategoryTopology))
}

func TestMergeHonorsCancellation(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(nil, &buf).MergeModuleConfig(ctx, Classify([]records.Record{rec(t, "1", "Site", "a: b\n")}), Options{})
	require.ErrorIs(t, err, context.Canceled)
}
