package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerFields(t *testing.T) {
	t.Setenv("APP_ENV", "")
	SetLevel("info")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	l := NewWithWriter("report", &buf)
	l.Infow("session done", map[string]any{"records": 3})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "report", line["component"])
	assert.Equal(t, "session done", line["message"])
	assert.EqualValues(t, 3, line["records"])
}

func TestSetLevelFiltersDebug(t *testing.T) {
	t.Setenv("APP_ENV", "")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	l := NewWithWriter("report", &buf)

	SetLevel("warn")
	l.Debugf("hidden %d", 1)
	l.Infof("hidden")
	assert.Zero(t, buf.Len())

	SetLevel("bogus")
	l.Infof("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Debugw("x", nil)
		l.Infof("x")
		l.Infow("x", nil)
		l.Warnf("x")
		l.Errorf("x")
	})
}
