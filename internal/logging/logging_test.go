package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	log.Info().Msg("dropped")
	storeLog := Component(log, "store")
	storeLog.Warn().Int("regions", 3).Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, 3.0, entry["regions"])
	assert.Contains(t, entry, "time")
}

func TestNew_ConsoleDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "", "console")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "chatty", "json")
	assert.Error(t, err)
}
