package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/atclint/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   string
		want    log.Level
		wantErr bool
	}{
		{level: "debug", want: log.DebugLevel},
		{level: "DEBUG", want: log.DebugLevel},
		{level: "Info", want: log.InfoLevel},
		{level: "", want: log.InfoLevel},
		{level: "warn", want: log.WarnLevel},
		{level: "warning", want: log.WarnLevel},
		{level: " error ", want: log.ErrorLevel},
		{level: "verbose", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			got, err := logging.ParseLevel(tt.level)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	assert.Equal(t, log.DebugLevel, logging.New("debug").GetLevel())
	assert.Equal(t, log.InfoLevel, logging.New("nonsense").GetLevel())
	assert.Equal(t, log.InfoLevel, logging.NewInteractive().GetLevel())
}

func TestNewWithOptions_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.NewWithOptions(logging.Options{
		Level:  "debug",
		Format: logging.FormatJSON,
		Writer: &buf,
		Prefix: "runner",
	})
	require.NoError(t, err)

	logger.Debug("file processed", logging.FieldPath, "Order.cs", logging.FieldCached, true)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "file processed", entry["msg"])
	assert.Equal(t, "Order.cs", entry[logging.FieldPath])
	assert.Equal(t, true, entry[logging.FieldCached])
	assert.Equal(t, "runner", entry["prefix"])
}

func TestNewWithOptions_Invalid(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.NewWithOptions(logging.Options{Format: "xml", Writer: &buf})
	require.Error(t, err)
	require.NotNil(t, logger, "a usable logger is returned with the error")

	logger.Info("still logs")
	assert.Contains(t, buf.String(), "still logs")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(logging.EnvLevel, "error")
	t.Setenv(logging.EnvFormat, logging.FormatLogfmt)

	logger, err := logging.FromEnv("debug")
	require.NoError(t, err)
	assert.Equal(t, log.ErrorLevel, logger.GetLevel(), "environment overrides the flag level")
}

func TestDefaultAndSetLevel(t *testing.T) {
	original := logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	fresh := logging.New("info")
	logging.SetDefault(fresh)
	assert.Same(t, fresh, logging.Default())

	logging.SetLevel("debug")
	assert.Equal(t, log.DebugLevel, fresh.GetLevel())
	logging.SetLevel("bogus")
	assert.Equal(t, log.InfoLevel, fresh.GetLevel())
}

func TestContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.NewWithOptions(logging.Options{Writer: &buf})
	require.NoError(t, err)

	ctx := logging.WithLogger(context.Background(), logger)
	assert.Same(t, logger, logging.FromContext(ctx))
	assert.NotNil(t, logging.FromContext(context.Background()))

	ctx, component := logging.WithComponent(ctx, "cache")
	assert.Same(t, component, logging.FromContext(ctx))

	component.Info("warm")
	assert.True(t, strings.Contains(buf.String(), "cache") && strings.Contains(buf.String(), "warm"), buf.String())
}
