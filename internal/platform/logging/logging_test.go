package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONAtLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{Level: "WARN", Out: &buf})
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("job", "notify").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "notify", line["job"])
	require.Equal(t, "warn", line["level"])
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)

	_, err = New(Options{Format: "xml"})
	require.ErrorContains(t, err, "LOG_FORMAT")
}
