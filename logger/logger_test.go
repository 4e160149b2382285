package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}
}

func TestSlogLogger_JSON(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false, false)

	l.Debug("hidden")
	l.Info("stage done", "stage", "home")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(lines, 1)

	var rec map[string]any
	require.NoError(json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal("stage done", rec["msg"])
	require.Equal("home", rec["stage"])
	require.Contains(rec, "ts")
}

func TestSlogLogger_LevelAndWith(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, WarnLevel, false, false)
	require.Equal(WarnLevel, l.Level())

	child := l.With("component", "sequencer")
	child.Info("dropped")
	require.Empty(buf.String())

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, child.Level())

	child.Debug("kept")
	require.Contains(buf.String(), `"component":"sequencer"`)
}

func TestSlogLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, DebugLevel, false, true)
	l.Info("Finished home", "cycle", 1)

	assert.Contains(t, buf.String(), "Finished home")
}

func TestSetLogger(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	m := NewMockLogger()
	m.On("Info", "hello", mock.Anything).Return().Once()

	SetLogger(m)
	SetLogger(nil)
	Info("hello")

	m.AssertExpectations(t)
}
