package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "DEBUG", want: zerolog.DebugLevel},
		{in: " warn ", want: zerolog.WarnLevel},
		{in: "off", want: zerolog.Disabled},
		{in: "disabled", want: zerolog.Disabled},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf}).WithComponent("finding_sink")

	log.With("run_id", "run-7").ErrorWithErr(errors.New("throttled"), "Batch import failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "amiaudit", entry["service"])
	assert.Equal(t, "finding_sink", entry["component"])
	assert.Equal(t, "run-7", entry["run_id"])
	assert.Equal(t, "throttled", entry["error"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Batch import failed", entry["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info("listed images")
	assert.Zero(t, buf.Len())

	log.Warn("skipping resource")
	assert.NotZero(t, buf.Len())
}
