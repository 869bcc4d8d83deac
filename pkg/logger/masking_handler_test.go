package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("connecting",
		slog.String("api_key", "secret-key"),
		slog.String("Token", "secret-token"),
		slog.String("endpoint", "/api/rates"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["api_key"])
	assert.Equal(t, "***", record["Token"])
	assert.Equal(t, "/api/rates", record["endpoint"])
}

func TestMaskingHandler_PassesThroughPlainAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("sweep done", slog.Int("orders", 3))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, float64(3), record["orders"])
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background())
	id := CorrelationIDFromContext(ctx)
	assert.NotEmpty(t, id)

	// An existing ID is kept, not replaced.
	again := WithCorrelationID(ctx)
	assert.Equal(t, id, CorrelationIDFromContext(again))

	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
