package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("WarnLevelHidesDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")

		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("json")
	defer SetFormat("text")

	Info("frame decoded", "size", 128)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "frame decoded", decoded["msg"])
	assert.EqualValues(t, 128, decoded["size"])
}

func TestContextFieldsInjected(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("json")
	defer SetFormat("text")

	lc := NewLogContext("127.0.0.1:48291").WithHeader(0x20008086, 1, 7)
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "call dispatched")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 7, decoded[KeySerial])
	assert.Equal(t, "127.0.0.1:48291", decoded[KeyClientAddr])
}

func TestLogContextClone(t *testing.T) {
	lc := NewLogContext("10.0.0.1:111").WithHeader(1, 2, 3)
	clone := lc.Clone()

	require.NotNil(t, clone)
	assert.Equal(t, lc.ClientAddr, clone.ClientAddr)
	assert.Equal(t, lc.Serial, clone.Serial)

	clone.Serial = 99
	assert.NotEqual(t, lc.Serial, clone.Serial)
}
