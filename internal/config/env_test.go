package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserIDs(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []int64
		wantErr  bool
	}{
		{name: "single id", value: "123456", expected: []int64{123456}},
		{name: "multiple ids", value: "1,2,3", expected: []int64{1, 2, 3}},
		{name: "spaces tolerated", value: " 1, 2 ,3 ", expected: []int64{1, 2, 3}},
		{name: "empty", value: "", wantErr: true},
		{name: "not a number", value: "1,abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ParseUserIDs(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TG_KEY", "bot-token")
	t.Setenv("OAI_TOKEN", "openai-key")
	t.Setenv("TG_USERS", "42,43")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "bot-token", cfg.TelegramBotToken)
	assert.Equal(t, "openai-key", cfg.OpenAIAPIKey)
	assert.Equal(t, []int64{42, 43}, cfg.AllowedUserIDs)
	assert.Equal(t, "./notify.db", cfg.DBPath)
	assert.Equal(t, "Asia/Jerusalem", cfg.Timezone)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.Equal(t, 500*time.Millisecond, cfg.UpdatePollEvery)
	assert.Equal(t, 5*time.Second, cfg.DispatchEvery)
	assert.Equal(t, "primary", cfg.GoogleCalendarID)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("TG_KEY", "bot-token")
	t.Setenv("OAI_TOKEN", "openai-key")
	t.Setenv("TG_USERS", "42")
	t.Setenv("NOTIFY_TIMEZONE", "Europe/Moscow")
	t.Setenv("NOTIFY_OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("NOTIFY_DISPATCH_INTERVAL", "10s")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 10*time.Second, cfg.DispatchEvery)
}

func TestLoadFromEnvMissingRequired(t *testing.T) {
	t.Setenv("TG_KEY", "")
	t.Setenv("OAI_TOKEN", "openai-key")
	t.Setenv("TG_USERS", "42")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}
