package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Minute, cfg.Chat.DefaultMuteDuration)
	assert.Equal(t, 50, cfg.Chat.DefaultPageLimit)
	assert.Equal(t, 99, cfg.Chat.UnreadCap)
	assert.Equal(t, 24*time.Hour, cfg.Chat.UnreadWindow)
	assert.Empty(t, cfg.OneSignal.AppID)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHAT_DEFAULT_MUTE_DURATION", "15m")
	t.Setenv("ONESIGNAL_APP_ID", "app")
	t.Setenv("ONESIGNAL_API_KEY", "key")
	t.Setenv("DATABASE_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Chat.DefaultMuteDuration)
	assert.Equal(t, "app", cfg.OneSignal.AppID)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestLoadRejectsBadPageLimits(t *testing.T) {
	t.Setenv("CHAT_DEFAULT_PAGE_LIMIT", "200")
	t.Setenv("CHAT_MAX_PAGE_LIMIT", "100")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveChatSettings(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CHAT_UNREAD_CAP", "0"},
		{"CHAT_UNREAD_CAP", "-1"},
		{"CHAT_MAX_PAGE_LIMIT", "0"},
		{"CHAT_UNREAD_WINDOW", "0s"},
		{"CHAT_ONLINE_WINDOW", "0s"},
		{"CHAT_NOTIFY_TIMEOUT", "0s"},
		{"CHAT_DEFAULT_MUTE_DURATION", "-5m"},
		{"CHAT_SEND_LIMIT_PER_MINUTE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadAllowsDisabledSendLimit(t *testing.T) {
	t.Setenv("CHAT_SEND_LIMIT_PER_MINUTE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Chat.SendLimitPerMinute)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("CHAT_UNREAD_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Chat.UnreadWindow)
}
