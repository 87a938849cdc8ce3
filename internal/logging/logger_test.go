package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		logger, err := NewLogger(&Config{Level: zapcore.InfoLevel, Format: "json"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("console format", func(t *testing.T) {
		logger, err := NewLogger(&Config{Level: zapcore.DebugLevel, Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger, err := NewLogger(nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("invalid format rejected", func(t *testing.T) {
		_, err := NewLogger(&Config{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json", "json", false},
		{"console", "console", false},
		{"empty", "", true},
		{"unknown", "logfmt", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Format: tc.format}
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))

	fields := ContextFields(ctx)
	require.Len(t, fields, 1)
	assert.Equal(t, "request.id", fields[0].Key)
}

func TestWithRequestIDIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
}
