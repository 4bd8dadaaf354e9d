package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/datenight/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	channelQueueSize = configVar[int]{
		envKey:       "SERVER_CHANNEL_QUEUE_SIZE",
		flagKey:      "channel-queue-size",
		defaultValue: 64,
		usage:        "Pending commands a channel buffers before senders block",
	}
	sendQueueSize = configVar[int]{
		envKey:       "SERVER_SEND_QUEUE_SIZE",
		flagKey:      "send-queue-size",
		defaultValue: 256,
		usage:        "Outgoing frames buffered per connection before they are dropped",
	}
	publishersLimit = configVar[int]{
		envKey:       "SERVER_PUBLISHERS_LIMIT",
		flagKey:      "publishers-limit",
		defaultValue: 1,
		usage:        "Maximum number of publishers in a channel",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 0,
		usage:        "Maximum number of sessions in a channel, 0 for no limit",
	}
	latencyProbeInterval = configVar[time.Duration]{
		envKey:       "SERVER_LATENCY_PROBE_INTERVAL",
		flagKey:      "latency-probe-interval",
		defaultValue: 0,
		usage:        "Interval between server latency probes, 0 disables them",
	}
	stateStore = configVar[string]{
		envKey:       "SERVER_STATE_STORE",
		flagKey:      "state-store",
		defaultValue: app.StateStoreRedis,
		usage:        "Playback snapshot store (redis or memory)",
	}
	stateTTL = configVar[time.Duration]{
		envKey:       "SERVER_STATE_TTL",
		flagKey:      "state-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "How long a playback snapshot outlives its channel",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
)

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.Int(channelQueueSize.flagKey, channelQueueSize.defaultValue, channelQueueSize.usage)
	pflag.Int(sendQueueSize.flagKey, sendQueueSize.defaultValue, sendQueueSize.usage)
	pflag.Int(publishersLimit.flagKey, publishersLimit.defaultValue, publishersLimit.usage)
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, membersLimit.usage)
	pflag.Duration(latencyProbeInterval.flagKey, latencyProbeInterval.defaultValue, latencyProbeInterval.usage)
	pflag.String(stateStore.flagKey, stateStore.defaultValue, stateStore.usage)
	pflag.Duration(stateTTL.flagKey, stateTTL.defaultValue, stateTTL.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	port.bind()
	host.bind()
	logLevel.bind()
	channelQueueSize.bind()
	sendQueueSize.bind()
	publishersLimit.bind()
	membersLimit.bind()
	latencyProbeInterval.bind()
	stateStore.bind()
	stateTTL.bind()
	redisPort.bind()
	redisHost.bind()
	redisPassword.bind()

	config := &app.AppConfig{
		Host:                 viper.GetString(host.flagKey),
		Port:                 viper.GetInt(port.flagKey),
		LogLevel:             viper.GetString(logLevel.flagKey),
		ChannelQueueSize:     viper.GetInt(channelQueueSize.flagKey),
		SendQueueSize:        viper.GetInt(sendQueueSize.flagKey),
		PublishersLimit:      viper.GetInt(publishersLimit.flagKey),
		MembersLimit:         viper.GetInt(membersLimit.flagKey),
		LatencyProbeInterval: viper.GetDuration(latencyProbeInterval.flagKey),
		StateStore:           viper.GetString(stateStore.flagKey),
		StateTTL:             viper.GetDuration(stateTTL.flagKey),
		RedisPort:            viper.GetInt(redisPort.flagKey),
		RedisHost:            viper.GetString(redisHost.flagKey),
		RedisPassword:        viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	// a missing .env is fine, the environment and flags still apply
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
