package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/fitcoach/internal/api"
	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/cache"
	"example.com/fitcoach/internal/config"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/middleware"
	"example.com/fitcoach/internal/notify"
	"example.com/fitcoach/internal/progress"
	"example.com/fitcoach/internal/realtime"
	mongostore "example.com/fitcoach/internal/store/mongo"
	"example.com/fitcoach/internal/suggest"
	httptransport "example.com/fitcoach/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	connectCancel()
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	repos := mongostore.NewRepositories(client.Database(cfg.MongoDatabase))
	if err := repos.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	var store cache.Store = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		store = cache.NewRedis(redisClient, cfg.CacheOpTimeout)
	}

	hub := realtime.NewHub()
	emitter := realtime.NewEmitter(hub)
	invalidator := cache.NewInvalidator(store)
	recomputer := progress.NewRecomputer(repos.Workouts, hub, invalidator)

	service := domain.NewService(
		repos.Workouts,
		repos.Exercises,
		repos.Notifications,
		repos.Users,
		recomputer,
		invalidator,
	)

	producer := notify.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := notify.NewDispatcher(repos.Notifications, emitter, producer,
		cfg.NotificationTopic, cfg.NotifyPollInterval, cfg.NotifyBatchSize)
	go dispatcher.Start(ctx)

	var suggester suggest.Generator
	if cfg.SuggestionURL != "" {
		suggester = suggest.NewFallback(suggest.NewHTTPGenerator(cfg.SuggestionURL, cfg.SuggestionToken, cfg.SuggestionTimeout))
	} else {
		suggester = suggest.NewFallback(nil)
	}

	handler := api.NewHandler(service, store, suggester)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/ws", realtime.NewWebSocketHandler(hub))
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:     cfg.HTTPAddress,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}, middleware.Logger(middleware.CORS(authMiddleware.Wrap(rateLimiter.Wrap(mux)))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fitcoach api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	dispatcher.Wait()
}
