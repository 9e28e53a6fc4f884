package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/kudos/internal/announce"
	"github.com/victornm/kudos/internal/api"
	"github.com/victornm/kudos/internal/catalog"
	"github.com/victornm/kudos/internal/enrich"
	"github.com/victornm/kudos/internal/event"
	"github.com/victornm/kudos/internal/ledger"
	"github.com/victornm/kudos/internal/render"
	"github.com/victornm/kudos/internal/scorecard"
	"github.com/victornm/kudos/internal/slack"
	"github.com/victornm/kudos/internal/telemetry"
	"github.com/victornm/kudos/internal/uploader"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Slack struct {
		BotToken      string
		SigningSecret string
	}

	Redis struct {
		Ledger struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Catalog struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Cloudinary struct {
		CloudName string
		APIKey    string
		APISecret string
	}

	Chrome struct {
		ControlURL string
	}

	Leaderboard struct {
		Size int
	}

	Modal struct {
		MaxUsers  int
		MaxAwards int
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
		slack    *slack.Client
		renderer *render.Service
		uploader *uploader.Service
	}

	service struct {
		catalog   *catalog.Service
		ledger    *ledger.Service
		scorecard *scorecard.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	up, err := uploader.NewService(uploader.Config{
		CloudName: s.c.Cloudinary.CloudName,
		APIKey:    s.c.Cloudinary.APIKey,
		APISecret: s.c.Cloudinary.APISecret,
	})
	if err != nil {
		return fmt.Errorf("cloudinary: %w", err)
	}
	s.infra.uploader = up

	s.infra.slack = slack.NewClient(slack.Config{BotToken: s.c.Slack.BotToken})
	s.infra.renderer = render.NewService(render.Config{ControlURL: s.c.Chrome.ControlURL})

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Ledger.Addrs,
		Password: s.c.Redis.Ledger.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := s.c.Postgres.Catalog

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initService() {
	s.service.catalog = catalog.NewService(catalog.Config{
		DB: s.infra.postgres,
	})

	s.service.ledger = ledger.NewService(ledger.Config{
		Redis:  s.infra.redis,
		Prefix: s.c.Redis.Ledger.Prefix,
	})

	s.service.scorecard = scorecard.NewService(scorecard.Config{
		Catalog: s.service.catalog,
		Ledger:  s.service.ledger,
		Enrich: enrich.NewService(enrich.Config{
			Profiles: s.infra.slack,
			Emoji:    s.infra.slack,
			Fetcher:  s.infra.slack,
		}),
		Renderer: s.infra.renderer,
	})

	announce.NewService(announce.Config{
		EventBus:  s.eb,
		Templates: s.service.catalog,
		Poster:    s.infra.slack,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.MonitorHTTP())

	api.New(api.Config{
		Router:          e.Group("/", slack.VerifySignature(s.c.Slack.SigningSecret)),
		EventBus:        s.eb,
		Scorecard:       s.service.scorecard,
		Catalog:         s.service.catalog,
		Messenger:       s.infra.slack,
		Uploader:        s.infra.uploader,
		LeaderboardSize: s.c.Leaderboard.Size,
		MaxUsers:        s.c.Modal.MaxUsers,
		MaxAwards:       s.c.Modal.MaxAwards,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if err := s.infra.renderer.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close renderer failed", "error", err)
	}
	s.infra.postgres.Close()
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
