package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", time.UTC)

	cl := Component(l, "database")
	cl.Info().Str("event", "db_migration_check").Msg("")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "database", entry["component"])
	assert.Equal(t, "db_migration_check", entry["event"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["ts"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", nil)

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Error().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "loud", time.UTC)

	l.Debug().Msg("dropped")
	l.Info().Msg("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
