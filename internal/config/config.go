package config

import "time"

type Config struct {
	LogLevel string `flag:"log-level"`

	NATSURL  string `flag:"nats-url"`
	NATSInit bool   `flag:"nats-init"`

	DatabaseURL string `flag:"database-url"`

	GatewayURL   string `flag:"gateway-url"`
	ChatAPIURL   string `flag:"chat-api-url"`
	ChatAPIToken string `flag:"chat-api-token"`

	GuildID         string `flag:"guild-id"`
	BoardChannelID  string `flag:"board-channel-id"`
	ModLogChannelID string `flag:"mod-log-channel-id"`
	BotUserID       string `flag:"bot-user-id"`

	APIAddr     string `flag:"api-addr"`
	MetricsAddr string `flag:"metrics-addr"`

	// Job-board tuning. Defaults live in the flag definitions.
	FrequencyWindow  time.Duration `flag:"frequency-window"`
	GraceBias        time.Duration `flag:"grace-bias"`
	ForHireMaxAge    time.Duration `flag:"for-hire-max-age"`
	SweepInterval    time.Duration `flag:"sweep-interval"`
	RepostGrace      time.Duration `flag:"repost-grace"`
	Web3BaseCooldown time.Duration `flag:"web3-base-cooldown"`
	ThreadTTL        time.Duration `flag:"thread-ttl"`
	ThreadCapacity   int           `flag:"thread-capacity"`
	ReportWindow     time.Duration `flag:"report-window"`
}

// ModLogChannel falls back to the board channel when no dedicated mod-log
// channel is configured.
func (c *Config) ModLogChannel() string {
	if c.ModLogChannelID != "" {
		return c.ModLogChannelID
	}
	return c.BoardChannelID
}
