package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facualex/portalinmobiliario-etl/config"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestHeadlessFromConfigKeptWithoutFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser:\n  headless: false\n"), 0o644))

	f, err := parseFlags(newFlagSet(), []string{"-config", path})
	require.NoError(t, err)
	cfg, err := loadConfig(f.configPath)
	require.NoError(t, err)

	f.apply(&cfg)
	assert.False(t, cfg.Browser.Headless)
}

func TestHeadlessFlagOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Headless = true

	f, err := parseFlags(newFlagSet(), []string{"-headless=false"})
	require.NoError(t, err)
	f.apply(&cfg)
	assert.False(t, cfg.Browser.Headless)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	f, err := parseFlags(newFlagSet(), []string{
		"-pages", "3",
		"-out", "out.json",
		"-links-out", "links.json",
		"-comunas", "nunoa, maipu",
	})
	require.NoError(t, err)
	f.apply(&cfg)

	assert.Equal(t, 3, cfg.Scrape.MaxPages)
	assert.Equal(t, "out.json", cfg.Output.RecordsFile)
	assert.Equal(t, "links.json", cfg.Output.LinksFile)
	assert.True(t, cfg.Output.WriteLinks)
	assert.Equal(t, []string{"nunoa", "maipu"}, cfg.Input.Only)
	assert.True(t, cfg.Browser.Headless)
}
