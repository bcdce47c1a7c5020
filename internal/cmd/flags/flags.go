package flags

import (
	"fmt"
	"slices"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var NATSURL = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var NATSInit = &cli.BoolFlag{
	Name:    "nats-init",
	Usage:   "Initialize the NATS server: create the stream, consumers and KV bucket",
	Value:   false,
	Sources: cli.EnvVars("NATS_INIT"),
}

var DatabaseURL = &cli.StringFlag{
	Name:    "database-url",
	Usage:   "Postgres connection string for the audit archive",
	Sources: cli.EnvVars("DATABASE_URL"),
}

var GatewayURL = &cli.StringFlag{
	Name:    "gateway-url",
	Usage:   "Websocket URL of the chat platform gateway",
	Sources: cli.EnvVars("GATEWAY_URL"),
}

var ChatAPIURL = &cli.StringFlag{
	Name:    "chat-api-url",
	Usage:   "Base URL of the chat platform REST API",
	Sources: cli.EnvVars("CHAT_API_URL"),
}

var ChatAPIToken = &cli.StringFlag{
	Name:    "chat-api-token",
	Usage:   "Bot token for the chat platform",
	Sources: cli.EnvVars("CHAT_API_TOKEN"),
}

var GuildID = &cli.StringFlag{
	Name:    "guild-id",
	Usage:   "ID of the community server",
	Sources: cli.EnvVars("GUILD_ID"),
}

var BoardChannelID = &cli.StringFlag{
	Name:    "board-channel-id",
	Usage:   "ID of the job board channel",
	Sources: cli.EnvVars("BOARD_CHANNEL_ID"),
}

var ModLogChannelID = &cli.StringFlag{
	Name:    "mod-log-channel-id",
	Usage:   "ID of the mod-log channel for removal reports; defaults to the board channel",
	Sources: cli.EnvVars("MOD_LOG_CHANNEL_ID"),
}

var BotUserID = &cli.StringFlag{
	Name:    "bot-user-id",
	Usage:   "The bot's own user ID, excluded from moderation",
	Sources: cli.EnvVars("BOT_USER_ID"),
}

var APIAddr = &cli.StringFlag{
	Name:    "api-addr",
	Usage:   "Listen address of the HTTP API",
	Value:   ":8888",
	Sources: cli.EnvVars("API_ADDR"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "Listen address of the metrics server",
	Value:   ":8080",
	Sources: cli.EnvVars("METRICS_ADDR"),
}

// Job-board tuning.
var (
	FrequencyWindow = &cli.DurationFlag{
		Name:    "frequency-window",
		Usage:   "How long an author's post blocks their next one",
		Value:   7 * 24 * time.Hour,
		Sources: cli.EnvVars("FREQUENCY_WINDOW"),
	}

	GraceBias = &cli.DurationFlag{
		Name:    "grace-bias",
		Usage:   "Forward clock bias applied to frequency eviction",
		Value:   6 * time.Hour,
		Sources: cli.EnvVars("GRACE_BIAS"),
	}

	ForHireMaxAge = &cli.DurationFlag{
		Name:    "for-hire-max-age",
		Usage:   "Age after which for-hire posts are swept",
		Value:   75 * time.Minute,
		Sources: cli.EnvVars("FOR_HIRE_MAX_AGE"),
	}

	SweepInterval = &cli.DurationFlag{
		Name:    "sweep-interval",
		Usage:   "How often the aged-content sweep runs",
		Value:   time.Hour,
		Sources: cli.EnvVars("SWEEP_INTERVAL"),
	}

	RepostGrace = &cli.DurationFlag{
		Name:    "repost-grace",
		Usage:   "Window after posting in which self-deletion frees the author to repost",
		Value:   10 * time.Minute,
		Sources: cli.EnvVars("REPOST_GRACE"),
	}

	Web3BaseCooldown = &cli.DurationFlag{
		Name:    "web3-base-cooldown",
		Usage:   "Base cooldown for banned-content offenders, scaled by offense count",
		Value:   6 * time.Hour,
		Sources: cli.EnvVars("WEB3_BASE_COOLDOWN"),
	}

	ThreadTTL = &cli.DurationFlag{
		Name:    "thread-ttl",
		Usage:   "How long a cached moderation thread stays reusable",
		Value:   time.Hour,
		Sources: cli.EnvVars("THREAD_TTL"),
	}

	ThreadCapacity = &cli.IntFlag{
		Name:    "thread-capacity",
		Usage:   "Maximum number of cached moderation threads",
		Value:   64,
		Sources: cli.EnvVars("THREAD_CAPACITY"),
	}

	ReportWindow = &cli.DurationFlag{
		Name:    "report-window",
		Usage:   "Window in which identical violations update one report instead of posting new ones",
		Value:   15 * time.Minute,
		Sources: cli.EnvVars("REPORT_WINDOW"),
	}
)

// Moderation groups the flags of the job-board core.
func Moderation() []cli.Flag {
	return []cli.Flag{
		GuildID,
		BoardChannelID,
		ModLogChannelID,
		BotUserID,
		FrequencyWindow,
		GraceBias,
		ForHireMaxAge,
		SweepInterval,
		RepostGrace,
		Web3BaseCooldown,
		ThreadTTL,
		ThreadCapacity,
		ReportWindow,
	}
}
