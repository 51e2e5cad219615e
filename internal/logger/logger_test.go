package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/roombooking/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.WithField("room_id", "r1").Debug("reserved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reserved", entry["msg"])
	assert.Equal(t, "r1", entry["room_id"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(config.LogConfig{Level: "loud", Format: "text"}, &buf)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
