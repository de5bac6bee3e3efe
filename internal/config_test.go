package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.AuthEnabled())
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, AuthModeDisabled, cfg.Mode)
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())

	cfg.Token = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is empty")
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.App.HTTP.Address())
	assert.Equal(t, 100, cfg.Editor.HistoryDepth)
}

func TestConfigSectionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "port out of range", mutate: func(c *Config) { c.App.HTTP.Port = 70000 }},
		{name: "missing sqlite path", mutate: func(c *Config) { c.SQLite.Path = "" }},
		{name: "watch without drafts path", mutate: func(c *Config) { c.Drafts.Path = "" }},
		{name: "zero history depth", mutate: func(c *Config) { c.Editor.HistoryDepth = 0 }},
		{name: "sub-second session ttl", mutate: func(c *Config) { c.Sessions.TTL = time.Millisecond }},
		{name: "negative render ttl", mutate: func(c *Config) { c.RenderCache.TTL = -time.Minute }},
		{name: "token mode without token", mutate: func(c *Config) { c.Auth.Mode = AuthModeToken }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDraftsWithoutWatchMayBeEmpty(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Drafts = DraftsConfig{}
	assert.NoError(t, cfg.Validate())
}
