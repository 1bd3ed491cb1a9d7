/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMismatchedTLSFlags(t *testing.T) {
	cfg := &Config{Port: 8080, TLSCert: "cert.pem"}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsInvalidPort(t *testing.T) {
	cfg := &Config{Port: 0}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestSchemeReflectsTLSConfiguration(t *testing.T) {
	cfg := &Config{Port: 8080}
	assert.Equal(t, "http", cfg.Scheme())

	cfg.TLSCert = "cert.pem"
	cfg.TLSKey = "key.pem"
	assert.Equal(t, "https", cfg.Scheme())
}

func TestNewCommandParsesFlags(t *testing.T) {
	cfg := &Config{}
	var ran bool
	cmd := NewCommand(cfg, func(c *Config, args []string) error {
		ran = true
		return nil
	})
	cmd.SetArgs([]string{"--port", "9090", "--catalog-base-url", "https://catalog.example"})

	require.NoError(t, cmd.Execute())
	assert.True(t, ran)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://catalog.example", cfg.CatalogBaseURL)
}
