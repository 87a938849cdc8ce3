package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://localhost:11434", Model: "llama3.2:8b"}, false},
		{"missing url", Config{Model: "llama3.2:8b"}, true},
		{"missing model", Config{BaseURL: "http://localhost:11434"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewServiceDefaultsTimeout(t *testing.T) {
	svc, err := NewService(Config{BaseURL: "http://localhost:11434", Model: "llama3.2:8b"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, svc.config.RequestTimeout)
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	svc, err := NewService(Config{BaseURL: "http://localhost:11434", Model: "llama3.2:8b"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "")
	assert.Error(t, err)
}
