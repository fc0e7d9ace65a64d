package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/accneat-go/neat"
)

func xorConfigPath() string {
	return filepath.Join("..", "..", "examples", "xor", "configs", "xor-config")
}

func TestLoadConfigDefaults(t *testing.T) {
	opts := &options{numRuns: 3, popSize: 200, searchType: "blended"}
	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.NEAT.PopSize)
	assert.Equal(t, string(neat.SearchBlended), cfg.NEAT.SearchType)
	assert.Equal(t, 3, cfg.NEAT.NumRuns)
}

func TestLoadConfigFileWinsOverUnsetFlags(t *testing.T) {
	opts := &options{configPath: xorConfigPath(), numRuns: 1, popSize: 1000, searchType: "complexify", backend: "lane"}
	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.NEAT.PopSize)
	assert.Equal(t, string(neat.SearchPhased), cfg.NEAT.SearchType)
	assert.Equal(t, "lane", cfg.Executor.Backend)

	opts = &options{configPath: xorConfigPath(), numRuns: 1, popSize: 30, popSizeSet: true, searchType: "complexify", searchSet: true}
	cfg, err = loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.NEAT.PopSize)
	assert.Equal(t, string(neat.SearchComplexify), cfg.NEAT.SearchType)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := loadConfig(&options{numRuns: 1, popSize: 10, searchType: "greedy"})
	assert.Error(t, err)

	_, err = loadConfig(&options{numRuns: 1, popSize: 10, searchType: "phased", backend: "gpu"})
	assert.Error(t, err)

	_, err = loadConfig(&options{numRuns: 1, popSize: 10, searchType: "phased", configPath: "missing.ini"})
	assert.Error(t, err)
}

func TestRootCmdRequiresExperiment(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRootCmdUnknownExperiment(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--out", t.TempDir(), "pole-balance"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
