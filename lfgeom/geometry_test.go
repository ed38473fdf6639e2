package lfgeom_test

import (
	"testing"

	"github.com/dargueta/littlefs/lfgeom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownSlug(t *testing.T) {
	g, err := lfgeom.Lookup("emulated-small")
	require.NoError(t, err)
	assert.Equal(t, uint(256), g.BlockSize)
	assert.Equal(t, uint(128), g.BlockCount)
}

func TestLookupUnknownSlug(t *testing.T) {
	_, err := lfgeom.Lookup("does-not-exist")
	assert.Error(t, err)
}

func TestConfigRoundTrips(t *testing.T) {
	g, err := lfgeom.Lookup("nand-128k")
	require.NoError(t, err)
	cfg := g.Config()
	assert.Equal(t, g.BlockSize, cfg.BlockSize)
	assert.Equal(t, g.BlockCycles, cfg.BlockCycles)
}

func TestSlugsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, lfgeom.Slugs())
}
