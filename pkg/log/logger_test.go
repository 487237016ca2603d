package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(GetLevel())

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden")
	logger.Warning("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "[test]")
	assert.Contains(t, buf.String(), "[WARNING]")

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("value %d", 42)
	assert.Contains(t, buf.String(), "value 42")
}

func TestSetSinkKeepsLevel(t *testing.T) {
	defer SetSink(os.Stdout)
	defer SetLevel(GetLevel())

	SetLevel(Error)
	var buf bytes.Buffer
	SetSink(&buf)

	New("test").Notice("dropped")
	assert.Empty(t, buf.String())
	assert.Equal(t, Error, GetLevel())
}
