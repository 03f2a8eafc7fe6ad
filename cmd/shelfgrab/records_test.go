// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shelfgrab/internal/secrets"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

func TestFormatRecordsText(t *testing.T) {
	var buf bytes.Buffer
	recs := []types.AcquisitionRecord{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Source: "libgen.is", File: "dune.epub"},
		{ID: "2", Title: "Solaris", Author: "Stanisław Lem", Source: "flibusta", File: "Lem - Solaris.epub"},
	}
	require.NoError(t, formatRecords(&buf, recs, false))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "dune.epub")
	assert.Contains(t, out, "flibusta")
	assert.Contains(t, out, "2 record(s)")
}

func TestFormatRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatRecords(&buf, nil, false))
	assert.Equal(t, "No records.\n", buf.String())
}

func TestFormatRecordsJSON(t *testing.T) {
	var buf bytes.Buffer
	recs := []types.AcquisitionRecord{{ID: "1", Title: "Dune", Source: "libgen.is"}}
	require.NoError(t, formatRecords(&buf, recs, true))

	var got []types.AcquisitionRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, recs, got)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SHELFGRAB_SHELF", "wishlist")
	t.Setenv("SHELFGRAB_DEFERRED_POLL_BASE", "1s")
	initConfig()
	loadedSecrets = secrets.Secrets{secrets.LibreTranslateAPIKey: "lt_key"}
	t.Cleanup(func() { loadedSecrets = nil })

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data.csv", cfg.CatalogPath)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, ".store.json", cfg.StorePath)
	assert.Equal(t, types.StoreJSON, cfg.StoreBackend)
	assert.Equal(t, "wishlist", cfg.Shelf)
	assert.Equal(t, 30*time.Second, cfg.Primary.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Translate.Timeout)
	assert.Equal(t, 60, cfg.Primary.RequestsPerMinute)
	assert.Equal(t, time.Second, cfg.Deferred.PollBase)
	assert.Equal(t, 15*time.Second, cfg.Deferred.PollJitter)
	assert.Equal(t, "ru", cfg.Translate.Target)
	assert.Equal(t, "lt_key", cfg.Translate.APIKey)
}
