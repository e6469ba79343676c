package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

	tcases := []struct {
		name      string
		addr      string
		dsn       string
		secret    string
		tokenTTL  time.Duration
		expectErr bool
	}{
		{
			name:     "valid config",
			addr:     "localhost:8000",
			dsn:      "host=localhost user=postgres",
			secret:   secret,
			tokenTTL: time.Hour,
		},
		{
			name:      "empty address",
			dsn:       "host=localhost user=postgres",
			secret:    secret,
			expectErr: true,
		},
		{
			name:      "empty dsn",
			addr:      "localhost:8000",
			secret:    secret,
			expectErr: true,
		},
		{
			name:      "empty secret",
			addr:      "localhost:8000",
			dsn:       "host=localhost user=postgres",
			expectErr: true,
		},
		{
			name:      "secret not base64",
			addr:      "localhost:8000",
			dsn:       "host=localhost user=postgres",
			secret:    "not-valid-base64!!!",
			expectErr: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.addr, tc.dsn, tc.secret, []string{"http://localhost:3000"}, tc.tokenTTL)
			if tc.expectErr {
				assert.Error(t, err, "expected an error")
				assert.Nil(t, cfg, "expected nil config on error")
				return
			}

			assert.NoError(t, err, "expected no error")
			assert.Equal(t, tc.addr, cfg.ServerAddr)
			assert.Equal(t, tc.dsn, cfg.DatabaseDSN)
			assert.Equal(t, []byte("test-signing-key"), cfg.SigningKey)
			assert.Equal(t, tc.tokenTTL, cfg.TokenTTL)
			assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
		})
	}
}

func TestNewConfig_DefaultTokenTTL(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	cfg, err := NewConfig("localhost:8000", "dsn", secret, nil, 0)
	assert.NoError(t, err, "expected no error")
	assert.Equal(t, defaultTokenTTL, cfg.TokenTTL, "expected default token TTL when unset")
}
