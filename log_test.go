package dcmio

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/b71729/dcmio/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// captureLogs routes package logging into a buffer as JSON lines until `t` finishes
func captureLogs(t *testing.T, level string) *bytes.Buffer {
	GetConfig() // settle the environment log level first
	buf := &bytes.Buffer{}
	previous := Logger()
	previousLevel := logLevel.Level()
	SetLogger(NewJSONLogger(zapcore.AddSync(buf)))
	SetLoggingLevel(level)
	t.Cleanup(func() {
		SetLogger(previous)
		logLevel.SetLevel(previousLevel)
	})
	return buf
}

func getLogEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	var entries []map[string]interface{}
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry), string(line))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingLevels(t *testing.T) {
	cases := []struct {
		level   string
		entries int
	}{
		{level: "debug", entries: 4},
		{level: "info", entries: 3},
		{level: "WARN", entries: 2},
		{level: "2", entries: 1},
		{level: "fatal", entries: 0},
		{level: "none", entries: 0},
	}
	for _, testCase := range cases {
		buf := captureLogs(t, testCase.level)
		Debugf("%s", "message")
		Infof("%s", "message")
		Warnf("%s", "message")
		Errorf("%s", "message")
		assert.Len(t, getLogEntries(t, buf), testCase.entries, testCase.level)
	}
}

func TestLoggingFields(t *testing.T) {
	buf := captureLogs(t, "warn")
	Warnf("value %d", 42)
	entries := getLogEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "value 42", entries[0]["msg"])
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Contains(t, entries[0], "ts")
}

func TestDiagnosticsAreLogged(t *testing.T) {
	buf := captureLogs(t, "warn")
	input := explicitElement(le, dictionary.NewTag(0x0040, 0x1234), "LO", text("x", 0x20))
	doc := parseFixture(t, input, ExplicitLittleEndian)
	require.Len(t, doc.Diagnostics, 1)
	entries := getLogEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, doc.Diagnostics[0].String(), entries[0]["msg"])
}

func TestSetLoggerNil(t *testing.T) {
	previous := Logger()
	t.Cleanup(func() { SetLogger(previous) })
	SetLogger(nil)
	require.NotNil(t, Logger())
	Errorf("discarded")
}

func TestValidLogLevel(t *testing.T) {
	t.Parallel()
	for _, level := range []string{"debug", "INFO", "warn", "error", "fatal", "none", "off", "0", "5"} {
		assert.True(t, validLogLevel(level), level)
	}
	for _, level := range []string{"", "chatty", "6"} {
		assert.False(t, validLogLevel(level), level)
	}
}
