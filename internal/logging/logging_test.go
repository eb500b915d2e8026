package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MirrorsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	var console bytes.Buffer

	log, closer, err := New(Config{File: path, Level: "debug"}, &console)
	require.NoError(t, err)
	log.WithField("question_id", 7).Info("selected question")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="selected question" question_id=7`)
	assert.Equal(t, console.String(), string(data))
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	for _, msg := range []string{"first run", "second run"} {
		log, closer, err := New(Config{File: path}, &bytes.Buffer{})
		require.NoError(t, err)
		log.Info(msg)
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first run")
	assert.Contains(t, lines[1], "second run")
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Config{}, &console)
	require.NoError(t, err)
	defer closer.Close()

	log.Debug("hidden")
	log.Warn("shown")
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "level=warning")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
