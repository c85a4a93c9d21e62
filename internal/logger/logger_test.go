package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestNewWritesServiceAndRequestID(t *testing.T) {
	l := New("gateway")
	var buf bytes.Buffer
	l.Logger.SetOutput(&buf)

	l.WithRequestID("req-1").Warn("unexpected model output")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "gateway", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "unexpected model output", line["message"])
}
