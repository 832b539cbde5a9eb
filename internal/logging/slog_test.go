package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	log := NewSlogLogger(base).With("module", "reactor")

	log.Info(context.Background(), "TCP connection established", "addr", "127.0.0.1:1234")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "TCP connection established", record["msg"])
	assert.Equal(t, "reactor", record["module"])
	assert.Equal(t, "127.0.0.1:1234", record["addr"])
}
