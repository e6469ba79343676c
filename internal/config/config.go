package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const defaultTokenTTL = 24 * time.Hour

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, tokenTTL time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	return &Config{
		DatabaseDSN:    databaseDSN,
		ServerAddr:     serverAddr,
		SigningKey:     signingKey,
		TokenTTL:       tokenTTL,
		AllowedOrigins: allowedOrigins,
	}, nil
}
