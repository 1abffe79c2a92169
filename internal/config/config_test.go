package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLookuper struct {
	values map[string]string
	err    error
	asked  []string
}

func (f *fakeLookuper) Lookup(_ context.Context, name string) (string, bool, error) {
	f.asked = append(f.asked, name)
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[name]
	return v, ok, nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LEONA_BACKEND_URL", "LEONA_PARAM_PREFIX", "LEONA_TAB_ID", "LEONA_CACHE_PATH",
		"LEONA_LOG_DIR", "LEONA_EXECUTE_API", "LEONA_TELEMETRY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	require.Equal(t, "default", cfg.TabID)
	require.Equal(t, "./data/tabs.db", cfg.CachePath)
	require.Equal(t, "logs", cfg.LogDir)
	require.True(t, cfg.ExecuteAPI)
	require.False(t, cfg.Telemetry)
	require.Error(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEONA_BACKEND_URL", "http://localhost:8000")
	t.Setenv("LEONA_PARAM_PREFIX", "/leona/dev/")
	t.Setenv("LEONA_TAB_ID", "tab-7")
	t.Setenv("LEONA_EXECUTE_API", "false")
	t.Setenv("LEONA_TELEMETRY", "true")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:8000", cfg.BackendURL)
	require.Equal(t, "/leona/dev", cfg.ParamPrefix)
	require.Equal(t, "tab-7", cfg.TabID)
	require.False(t, cfg.ExecuteAPI)
	require.True(t, cfg.Telemetry)
}

func TestApplyParameters(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEONA_PARAM_PREFIX", "/leona/dev")

	cfg := Load()
	l := &fakeLookuper{values: map[string]string{"/leona/dev/config/execute_api": "false"}}
	require.NoError(t, cfg.ApplyParameters(context.Background(), l))
	require.False(t, cfg.ExecuteAPI)
	require.Equal(t, []string{"/leona/dev/config/execute_api"}, l.asked)
}

func TestApplyParametersMissingKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEONA_PARAM_PREFIX", "/leona/dev")

	cfg := Load()
	require.NoError(t, cfg.ApplyParameters(context.Background(), &fakeLookuper{}))
	require.True(t, cfg.ExecuteAPI)
}

func TestApplyParametersExplicitWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEONA_PARAM_PREFIX", "/leona/dev")

	cfg := Load()
	cfg.SetExecuteAPI(true)
	l := &fakeLookuper{values: map[string]string{"/leona/dev/config/execute_api": "false"}}
	require.NoError(t, cfg.ApplyParameters(context.Background(), l))
	require.True(t, cfg.ExecuteAPI)
	require.Empty(t, l.asked)
}

func TestApplyParametersErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEONA_PARAM_PREFIX", "/leona/dev")

	cfg := Load()
	require.Error(t, cfg.ApplyParameters(context.Background(), &fakeLookuper{err: errors.New("denied")}))

	bad := &fakeLookuper{values: map[string]string{"/leona/dev/config/execute_api": "maybe"}}
	require.Error(t, cfg.ApplyParameters(context.Background(), bad))
}
