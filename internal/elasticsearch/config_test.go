package elasticsearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already has http://", "http://elasticsearch:9200", "http://elasticsearch:9200"},
		{"already has https://", "https://elasticsearch:9200", "https://elasticsearch:9200"},
		{"missing protocol", "elasticsearch:9200", "http://elasticsearch:9200"},
		{"empty string", "", "http://localhost:9200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeURL(tt.input))
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()

	assert.Equal(t, "http://localhost:9200", cfg.URL)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.PingTimeout)

	custom := Config{URL: "http://custom:9200", MaxRetries: 5}
	custom.SetDefaults()
	assert.Equal(t, "http://custom:9200", custom.URL)
	assert.Equal(t, 5, custom.MaxRetries)
}

func TestCreateTransport(t *testing.T) {
	plain := createTransport(Config{Timeout: 30 * time.Second})
	assert.Nil(t, plain.TLSClientConfig)
	assert.Equal(t, 30*time.Second, plain.ResponseHeaderTimeout)

	insecure := createTransport(Config{InsecureSkipVerify: true})
	if assert.NotNil(t, insecure.TLSClientConfig) {
		assert.True(t, insecure.TLSClientConfig.InsecureSkipVerify)
	}
}
