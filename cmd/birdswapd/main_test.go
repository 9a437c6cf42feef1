package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"birdswap/config"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Marketplace: config.Marketplace{
			Owner:            "0x00000000000000000000000000000000000000aa",
			FeePayoutAddress: "0x00000000000000000000000000000000000000ab",
			FeeBps:           250,
		},
		Storage: config.Storage{Backend: "bolt", DataDir: dir},
	}
}

func TestOpenNodeBootstrapsAndReopens(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	node, err := openNode(testConfig(dir), false, logger)
	require.NoError(t, err)
	cfg, err := node.MarketplaceConfig()
	require.NoError(t, err)
	require.Equal(t, uint16(250), cfg.MarketplaceFeeBps)
	node.Close()

	// Genesis values are ignored once state exists.
	changed := testConfig(dir)
	changed.Marketplace.FeeBps = 10
	node, err = openNode(changed, false, logger)
	require.NoError(t, err)
	defer node.Close()
	cfg, err = node.MarketplaceConfig()
	require.NoError(t, err)
	require.Equal(t, uint16(250), cfg.MarketplaceFeeBps)
}

func TestLogEmitterWritesCommittedEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cfg := testConfig("")
	cfg.Storage.Backend = "memory"

	node, err := openNode(cfg, false, logger)
	require.NoError(t, err)
	defer node.Close()

	var sawInit bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "event" && entry["type"] == "birdswap.initialized" {
			sawInit = true
		}
	}
	require.True(t, sawInit, "expected genesis event in log output")
}
