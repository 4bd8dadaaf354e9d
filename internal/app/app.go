package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/datenight/server/internal/controller"
	"github.com/datenight/server/internal/repository/connection/inmemory"
	"github.com/datenight/server/internal/repository/state"
	stateInmemory "github.com/datenight/server/internal/repository/state/inmemory"
	stateRedis "github.com/datenight/server/internal/repository/state/redis"
	"github.com/datenight/server/internal/service/channel"
	"github.com/datenight/server/pkg/ctxlogger"
	"github.com/datenight/server/pkg/redisclient"
)

const (
	StateStoreRedis  = "redis"
	StateStoreMemory = "memory"
)

type AppConfig struct {
	Host                 string        `json:"host"`
	Port                 int           `json:"port"`
	LogLevel             string        `json:"log_level"`
	ChannelQueueSize     int           `json:"channel_queue_size"`
	SendQueueSize        int           `json:"send_queue_size"`
	PublishersLimit      int           `json:"publishers_limit"`
	MembersLimit         int           `json:"members_limit"`
	LatencyProbeInterval time.Duration `json:"latency_probe_interval"`
	StateStore           string        `json:"state_store"`
	StateTTL             time.Duration `json:"state_ttl"`
	RedisPort            int           `json:"redis_port"`
	RedisHost            string        `json:"redis_host"`
	RedisPassword        string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.ChannelQueueSize < 1 {
		return fmt.Errorf("channel queue size must be greater than 0")
	}
	if cfg.SendQueueSize < 1 {
		return fmt.Errorf("send queue size must be greater than 0")
	}
	if cfg.PublishersLimit < 1 {
		return fmt.Errorf("publishers limit must be greater than 0")
	}
	if cfg.MembersLimit < 0 {
		return fmt.Errorf("members limit must not be negative")
	}
	if cfg.LatencyProbeInterval < 0 {
		return fmt.Errorf("latency probe interval must not be negative")
	}
	if cfg.StateStore != StateStoreRedis && cfg.StateStore != StateStoreMemory {
		return fmt.Errorf("state store must be one of [%s %s]", StateStoreRedis, StateStoreMemory)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return logLevel, nil
}

type iStateRepo interface {
	SetPlayer(context.Context, *state.SetPlayerParams) error
	GetPlayer(context.Context, string) (state.Player, error)
}

// newStateRepo returns the playback snapshot store and a function releasing
// its resources.
func newStateRepo(ctx context.Context, cfg *AppConfig) (iStateRepo, func(), error) {
	if cfg.StateStore == StateStoreMemory {
		return stateInmemory.NewRepo(), func() {}, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return stateRedis.NewRepo(rc, cfg.StateTTL), func() { rc.Close() }, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel, _ := parseLogLevel(cfg.LogLevel)
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)
	slog.SetDefault(logger)

	stateRepo, closeStateRepo, err := newStateRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStateRepo()

	connectionRepo := inmemory.NewRepo()
	channelService := channel.NewService(connectionRepo, stateRepo, logger, &channel.Config{
		QueueSize:            cfg.ChannelQueueSize,
		PublishersLimit:      cfg.PublishersLimit,
		MembersLimit:         cfg.MembersLimit,
		LatencyProbeInterval: cfg.LatencyProbeInterval,
	})
	controller := controller.NewController(channelService, logger, &controller.Config{
		SendQueueSize: cfg.SendQueueSize,
	})
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}

		if err := channelService.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "failed to stop channels", "error", err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
