package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/tictactoe-relay/internal/api"
	"ctchen222/tictactoe-relay/internal/api/controller"
	"ctchen222/tictactoe-relay/internal/api/service"
	"ctchen222/tictactoe-relay/internal/bot"
	"ctchen222/tictactoe-relay/internal/config"
	"ctchen222/tictactoe-relay/internal/db"
	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/hub"
	"ctchen222/tictactoe-relay/internal/logger"
	"ctchen222/tictactoe-relay/internal/repository"
	"ctchen222/tictactoe-relay/internal/room"
	"ctchen222/tictactoe-relay/internal/server"
	"ctchen222/tictactoe-relay/internal/telemetry"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; environment only when empty")
	issueToken := flag.String("issue-token", "", "print an admin API token for this subject and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *issueToken != "" {
		token, err := service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).IssueToken(*issueToken)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	lg, err := logger.Init(cfg.LogLevel, telemetry.Enabled(cfg.Telemetry.OTLPEndpoint))
	if err != nil {
		return err
	}

	// Initialize telemetry
	shutdownOtel, err := telemetry.InitOtel(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			lg.Error("error shutting down telemetry", "error", err)
		}
	}()

	drawPolicy, err := room.ParseDrawPolicy(cfg.Session.DrawPolicy)
	if err != nil {
		return err
	}
	difficulty, err := bot.ParseDifficulty(cfg.Matchmaking.BotDifficulty)
	if err != nil {
		return err
	}

	// Events reach the log inline; slower sinks go through the dispatcher.
	notifiers := events.Fanout{events.NewLogNotifier(lg)}
	var sinks events.Fanout
	var feed controller.Subscriber

	// Initialize Redis
	if cfg.Redis.Addr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()
		sinks = append(sinks, events.NewRedisPublisher(rdb, cfg.Redis.Channel, lg))
		feed = events.NewRedisSubscriber(rdb, lg)
		lg.Info("publishing events to redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	} else {
		broker := events.NewBroker()
		notifiers = append(notifiers, broker)
		feed = broker
	}

	// Initialize SQLite roster
	var roster repository.PlayerRepository
	if cfg.Roster.SQLitePath != "" {
		pool, err := db.OpenSQLite(cfg.Roster.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite db: %w", err)
		}
		defer pool.Close()
		roster = repository.NewPlayerRepository(pool)
		sinks = append(sinks, repository.NewRosterRecorder(roster, lg))
		lg.Info("recording player roster", "path", cfg.Roster.SQLitePath)
	}

	if len(sinks) > 0 {
		dispatcher := events.NewDispatcher(sinks, 0, lg)
		notifiers = append(notifiers, dispatcher)
		go dispatcher.Run(context.WithoutCancel(ctx))
		defer dispatcher.Stop()
	}

	// Create hub
	h := hub.NewHub(hub.Options{
		DrawPolicy:    drawPolicy,
		MaxWait:       cfg.Matchmaking.MaxWait,
		OnTimeout:     hub.TimeoutAction(cfg.Matchmaking.OnTimeout),
		BotDifficulty: difficulty,
		BotThinkTime:  cfg.Matchmaking.BotThinkTime,
		Notifier:      notifiers,
		Logger:        lg,
	})

	srv := server.NewServer(h, cfg.Session.WriteTimeout, lg)

	gin.SetMode(gin.ReleaseMode)
	auth := service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if !auth.Enabled() {
		lg.Warn("admin secret not set, mutating admin endpoints are disabled")
	}
	var httpServer *http.Server
	if cfg.AdminAddr != "" {
		httpServer = &http.Server{
			Addr: cfg.AdminAddr,
			Handler: api.NewRouter(api.Deps{
				Hub:    h,
				Feed:   feed,
				Roster: roster,
				Auth:   auth,
				Logger: lg,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return h.Run(gctx)
	})

	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.ListenAddr)
	})

	if httpServer != nil {
		g.Go(func() error {
			lg.Info("admin http server started", "addr", cfg.AdminAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	lg.Info("server exiting")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
