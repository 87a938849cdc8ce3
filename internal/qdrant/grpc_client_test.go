package qdrant

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	qdrantpb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClientConfigDefaults(t *testing.T) {
	cfg := &ClientConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
	assert.Equal(t, 50*1024*1024, cfg.MaxMessageSize)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
}

func TestClientConfigApplyDefaultsKeepsSetValues(t *testing.T) {
	cfg := &ClientConfig{Host: "qdrant.internal", Port: 7000, RetryAttempts: 1}
	cfg.ApplyDefaults()

	assert.Equal(t, "qdrant.internal", cfg.Host)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 1, cfg.RetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestClientConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{"valid", ClientConfig{Host: "localhost", Port: 6334, MaxMessageSize: 1024}, false},
		{"missing host", ClientConfig{Port: 6334, MaxMessageSize: 1024}, true},
		{"zero port", ClientConfig{Host: "localhost", MaxMessageSize: 1024}, true},
		{"port too large", ClientConfig{Host: "localhost", Port: 70000, MaxMessageSize: 1024}, true},
		{"zero message size", ClientConfig{Host: "localhost", Port: 6334}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewGRPCClientRequiresLogger(t *testing.T) {
	_, err := NewGRPCClient(DefaultClientConfig(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"unavailable", status.Error(codes.Unavailable, "down"), true},
		{"deadline exceeded", status.Error(codes.DeadlineExceeded, "slow"), true},
		{"aborted", status.Error(codes.Aborted, "conflict"), true},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"not found", status.Error(codes.NotFound, "missing"), false},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.transient, isTransientError(tc.err))
		})
	}
}

func TestConvertToQdrantPoint(t *testing.T) {
	point := &Point{
		ID:     "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Vector: []float32{0.1, 0.2, 0.3},
		Payload: map[string]interface{}{
			FieldFilename:        "tax_code.pdf",
			FieldSourceID:        "TAX-2023",
			FieldPageNumber:      4,
			FieldParagraphNumber: 2,
			FieldTextChunk:       "Late filings incur a penalty.",
		},
	}

	converted := convertToQdrantPoint(point)

	assert.Equal(t, point.ID, converted.Id.GetUuid())
	assert.Len(t, converted.Payload, 5)
	assert.Equal(t, "tax_code.pdf", converted.Payload[FieldFilename].GetStringValue())
	assert.Equal(t, int64(4), converted.Payload[FieldPageNumber].GetIntegerValue())
}

func TestPayloadValueRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"s": "text",
		"i": 42,
		"f": 2.5,
		"b": true,
	}

	payload := make(map[string]*qdrantpb.Value, len(in))
	for k, v := range in {
		payload[k] = convertToQdrantValue(v)
	}
	out := extractPayload(payload)

	assert.Equal(t, "text", out["s"])
	assert.Equal(t, int64(42), out["i"])
	assert.Equal(t, 2.5, out["f"])
	assert.Equal(t, true, out["b"])
}
