package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/idempotency"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/ratelimit"
	"github.com/xavierca1/ligue-leads/internal/infra/secrets"
	"github.com/xavierca1/ligue-leads/internal/infra/sms"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/security"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Falha ao conectar no Postgres: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: envOr("REDIS_ADDR", "localhost:6379")})
	defer redisClient.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "user"),
		envOr("RABBITMQ_PASS", "password"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatalf("❌ Falha ao conectar no RabbitMQ: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	realClock := clock.Real{}

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)
	orgRepo := database.NewOrgRepository(db)
	attemptRepo := database.NewNotificationAttemptRepository(db)

	// 2. Stores de contador (Redis compartilhado; veja ratelimit.LocalStore
	// para o modo degradado sem Redis)
	limitStore := ratelimit.NewRedisStore(redisClient)
	window := time.Duration(envIntOr("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	leadLimiter := ratelimit.NewLimiter(limitStore, "lead", window, envIntOr("RATE_LIMIT_MAX", 3))
	adminLimiter := ratelimit.NewLimiter(limitStore, "admin-query", time.Minute, envIntOr("ADMIN_QUERY_LIMIT_MAX", 30))
	exportLimiter := ratelimit.NewLimiter(limitStore, "export", time.Hour, envIntOr("EXPORT_LIMIT_MAX", 5))

	idemStore := idempotency.NewRedisStore(redisClient, idempotency.DefaultTTL)

	// 3. Analisador de segurança (mesma janela do rate limit, para a chave de
	// idempotência colapsar reenvios dentro de uma janela)
	analyzer := security.NewAnalyzer(os.Getenv("SECURITY_SALT"), window, realClock)

	// 4. Gateways e senders
	producer := queue.NewProducer(rabbitMQ.Ch)

	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"),
		envIntOr("MAIL_PORT", 587),
		os.Getenv("MAIL_USER"),
		os.Getenv("MAIL_PASS"),
		envOr("MAIL_FROM", "nao-responda@liguemedicina.com"),
	)

	smsCreds := secrets.NewCache(5*time.Minute, realClock)
	smsSender := sms.NewSender(
		sms.NewPrimaryProvider(smsCreds),
		sms.NewFallbackProvider(smsCreds),
	)

	internalRecipients := secrets.NewInternalRecipients(realClock)

	// 5. UseCases
	captureUC := usecase.NewCaptureLeadUseCase(leadRepo, analyzer, leadLimiter, idemStore, nil, producer)

	dispatchUC := usecase.NewDispatchNotificationUseCase(
		leadRepo, orgRepo, attemptRepo,
		mailSender, smsSender, internalRecipients,
		usecase.ChannelFlags{
			EmailEnabled: os.Getenv("NOTIFY_EMAIL_ENABLED") == "true",
			SmsEnabled:   os.Getenv("NOTIFY_SMS_ENABLED") == "true",
		},
		realClock,
	)

	// 6. Workers (fila de notificação + retenção de auditoria)
	notificationWorker := queue.NewWorker(rabbitMQ.Ch, dispatchUC)
	go notificationWorker.Start(queue.QueueName)

	retention := worker.NewRetentionWorker(attemptRepo)
	go retention.Start(context.Background())

	// 7. Handlers
	leadHandler := handlers.NewLeadHandler(captureUC, leadRepo, adminLimiter, exportLimiter)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, redisClient)

	// 8. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/lead", leadHandler.HandleCapture)
	r.Get("/lead/{leadId}", leadHandler.HandleGet)
	r.Post("/lead/export", leadHandler.HandleExport)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":8080"
	log.Printf("🔥 Server LigueLeads rodando na porta %s", port)
	http.ListenAndServe(port, r)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
