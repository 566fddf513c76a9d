package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port   int
	DBPath string

	// BaseURL overrides the host used when constructing OAuth redirect URIs.
	BaseURL string

	ZohoClientID     string
	ZohoClientSecret string
	ZohoRefreshToken string
	ZohoAccountID    string

	DiscordBotToken   string
	DiscordChannelID  string
	DiscordWebhookURL string
	DiscordPublicKey  string
}

func Load() Config {
	return Config{
		Port:              getEnvInt("PORT", 3000),
		DBPath:            getEnvString("DB_PATH", ""),
		BaseURL:           getEnvString("BASE_URL", ""),
		ZohoClientID:      getEnvString("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret:  getEnvString("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken:  getEnvString("ZOHO_REFRESH_TOKEN", ""),
		ZohoAccountID:     getEnvString("ZOHO_ACCOUNT_ID", ""),
		DiscordBotToken:   getEnvString("DISCORD_BOT_TOKEN", ""),
		DiscordChannelID:  getEnvString("DISCORD_CHANNEL_ID", ""),
		DiscordWebhookURL: getEnvString("DISCORD_WEBHOOK_URL", ""),
		DiscordPublicKey:  getEnvString("DISCORD_PUBLIC_KEY", ""),
	}
}

// RedirectURI builds the OAuth callback URI from BaseURL when set, falling
// back to localhost on the configured port.
func (c Config) RedirectURI() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	return base + "/oauth/callback"
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}
