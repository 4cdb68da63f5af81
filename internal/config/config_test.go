package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/component"
	"github.com/vango-dev/gousse/pkg/router"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, router.ModeHash, cfg.RouterMode())
	assert.Equal(t, component.ShadowNone, cfg.DefaultShadow())
	assert.True(t, cfg.Components.CustomElements)
	assert.True(t, cfg.DOM.LegacyMutationEvents)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultSite, cfg.Server.Site)
	assert.Equal(t, DefaultRenderTimeout, cfg.Server.RenderTimeout)
	assert.Equal(t, "gousse", cfg.Metrics.Namespace)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("", WithSearchPaths(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, *Default(), *cfg)
	assert.Empty(t, cfg.Path())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gousse.yaml", `
router:
  mode: pushstate
components:
  customElements: false
  defaultShadow: open
server:
  addr: ":9000"
  watch: true
  renderTimeout: 500ms
log:
  level: debug
`)

	cfg, err := Load("", WithSearchPaths(dir))
	require.NoError(t, err)

	assert.Equal(t, router.ModePushState, cfg.RouterMode())
	assert.False(t, cfg.Components.CustomElements)
	assert.Equal(t, component.ShadowOpen, cfg.DefaultShadow())
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.RenderTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, DefaultSite, cfg.Server.Site)
	assert.Equal(t, filepath.Join(dir, "gousse.yaml"), cfg.Path())
}

func TestLoadJSONFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.json", `{"server": {"site": "pages.yaml"}, "metrics": {"namespace": "shop"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pages.yaml", cfg.Server.Site)
	assert.Equal(t, "shop", cfg.Metrics.Namespace)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, gerrors.HasCode(err, "G050"), "error = %v", err)
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gousse.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("GOUSSE_SERVER_ADDR", ":7000")
	t.Setenv("GOUSSE_ROUTER_MODE", "pushstate")

	cfg, err := Load("", WithSearchPaths(dir))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, router.ModePushState, cfg.RouterMode())
}

func TestFlagOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.String("addr", DefaultAddr, "")
	fs.Bool("watch", false, "")
	require.NoError(t, fs.Parse([]string{"--addr", ":6000"}))

	cfg, err := Load("", WithSearchPaths(t.TempDir()), WithFlags(fs, map[string]string{
		"server.addr":  "addr",
		"server.watch": "watch",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.Addr)
	assert.False(t, cfg.Server.Watch)

	_, err = Load("", WithSearchPaths(t.TempDir()), WithFlags(fs, map[string]string{"server.site": "nope"}))
	assert.True(t, gerrors.HasCode(err, "G050"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"router mode", func(c *Config) { c.Router.Mode = "bogus" }},
		{"shadow mode", func(c *Config) { c.Components.DefaultShadow = "closed" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"render timeout", func(c *Config) { c.Server.RenderTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, gerrors.HasCode(err, "G050"), "Validate() = %v", err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
