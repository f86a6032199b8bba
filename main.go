package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"luvlang_server/config"
	"luvlang_server/controllers"
	"luvlang_server/middleware"
	"luvlang_server/models"
	"luvlang_server/routes"
	"luvlang_server/scheduler"
	"luvlang_server/services"
	"luvlang_server/socket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if cfg.OTel.Endpoint != "" {
		shutdown, err := initTracing(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName)
		if err != nil {
			log.Fatalf("❌ Tracing setup failed: %v", err)
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(c)
		}()
		log.Printf("🔭 Tracing to %s", cfg.OTel.Endpoint)
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing AWS clients...")
	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	dynamoService := &services.DynamoService{Client: services.NewDynamoDBClient(awsCfg, cfg.AWS.Endpoint)}

	store, err := services.NewObjectStore(cfg, awsCfg)
	if err != nil {
		log.Fatalf("❌ Object store setup failed: %v", err)
	}
	log.Printf("✅ Using %s object store", cfg.Storage.Driver)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable at %s, pending writes and session checks will fail: %v", cfg.Redis.Addr, err)
	}

	auth := &middleware.Authenticator{Secret: []byte(cfg.Auth.JWTSecret)}
	if cfg.Auth.JWTSecret == "" {
		log.Println("⚠️ JWT_SECRET is empty, every authenticated request will be rejected")
	}
	hub := socket.NewHub(auth.UserIDFromToken)
	go hub.Serve()
	defer hub.Close()

	// Initialize Services
	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = services.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}
	emailService := services.NewEmailService(mailer, cfg.Server.AppURL)

	webhookService := &services.WebhookService{
		Dynamo:     dynamoService,
		HTTP:       &http.Client{Timeout: cfg.Webhook.HTTPTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		ForwardURL: cfg.Webhook.ForwardURL,
	}

	userProfileService := &services.UserProfileService{
		Dynamo:  dynamoService,
		Answers: &services.CompatibilityService{Dynamo: dynamoService},
		Policy:  cfg.Policy,
	}
	userProfileService.AfterSave = []services.ProfileHook{
		func(ctx context.Context, p models.Profile, created bool) {
			// Side effects outlive the request that triggered them.
			go func(ctx context.Context) {
				if created && p.EmailID != "" {
					if err := emailService.SendWelcome(p); err != nil {
						log.Printf("⚠️ Welcome email for %s failed: %v", p.UserID, err)
					}
				}
				if err := webhookService.ForwardProfile(ctx, p, created); err != nil {
					log.Printf("⚠️ Profile forward for %s failed: %v", p.UserID, err)
				}
			}(context.WithoutCancel(ctx))
		},
	}

	pendingQueue := &services.PendingWriteQueue{Redis: redisClient, MaxAttempts: cfg.Schedule.MaxPendingAttempts}
	uploadMetrics := services.DefaultUploadMetrics()
	orchestrator := &services.UploadOrchestrator{
		Store:    store,
		Profiles: userProfileService,
		Notifier: hub,
		Pending:  pendingQueue,
		Policy:   cfg.Policy,
		Metrics:  uploadMetrics,
	}

	membershipService := services.NewMembershipService(dynamoService, 5*time.Minute)
	paymentService := services.NewPaymentService(ctx, cfg.Payment.BaseURL, cfg.Payment.ClientID, cfg.Payment.ClientSecret,
		cfg.Payment.ReturnURL, cfg.Payment.CancelURL, membershipService)

	matchService := services.NewMatchService(dynamoService, membershipService, 0)
	matchService.PoolSize = cfg.Schedule.CandidatePoolSize
	matchService.DailyCount = cfg.Schedule.DailyMatchCount
	matchService.ExecutiveCount = cfg.Schedule.ExecutiveMatchCount

	swipeService := &services.SwipeService{Dynamo: dynamoService, Notifier: hub}
	swipeService.OnMatch = []services.MatchHook{
		func(ctx context.Context, match models.Match) {
			go emailMatch(context.WithoutCancel(ctx), userProfileService, emailService, match)
		},
	}

	reconcileService := &services.ReconcileService{
		Store:    store,
		Profiles: userProfileService,
		Pending:  pendingQueue,
		Bucket:   cfg.Policy.Photo.Bucket,
	}
	sessionGuard := &services.SessionGuard{Redis: redisClient, TTL: 30 * 24 * time.Hour}

	nightly := &scheduler.Scheduler{
		Profiles:      userProfileService,
		Matches:       matchService,
		Digest:        emailService,
		Reconcile:     reconcileService,
		Pending:       pendingQueue,
		Replayer:      orchestrator,
		DeleteOrphans: cfg.Schedule.DeleteOrphans,
		GracePeriod:   cfg.Schedule.OrphanGracePeriod,
		Timeout:       2 * time.Hour,
	}
	if err := nightly.Start(cfg.Schedule.NightlySpec); err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer nightly.Stop()

	// Initialize the router
	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.PathPrefix("/socket.io/").Handler(hub.Server)
	webhookLimiter := middleware.NewRateLimiter(cfg.Webhook.RatePerSec, cfg.Webhook.Burst)
	if err := webhookLimiter.TrustProxies(cfg.Webhook.TrustedProxies); err != nil {
		log.Fatalf("❌ Invalid TRUSTED_PROXIES: %v", err)
	}
	routes.RegisterWebhookRoutes(r, &controllers.WebhookController{Recorder: webhookService}, webhookLimiter)

	guard := routes.Guard(auth, sessionGuard)
	routes.RegisterS3Routes(r, &controllers.PresignController{Store: store, Policy: cfg.Policy}, guard)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(guard)
	routes.RegisterMediaRoutes(api, controllers.NewPhotoController(orchestrator, userProfileService, store, cfg.Policy))
	routes.RegisterUserProfileRoutes(api, controllers.NewUserProfileController(userProfileService, orchestrator))
	routes.RegisterMatchRoutes(api, controllers.NewMatchController(matchService, swipeService))
	routes.RegisterPaymentRoutes(api, &controllers.PaymentController{Plans: membershipService, Payments: paymentService})
	routes.RegisterFunctionsRoutes(api,
		&controllers.FunctionsController{Email: emailService},
		&controllers.AdminController{Reconciler: reconcileService, GracePeriod: cfg.Schedule.OrphanGracePeriod})

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Device-Id"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(corsHandler, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s...\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
}

// emailMatch tells both users about a new match.
func emailMatch(ctx context.Context, profiles *services.UserProfileService, email *services.EmailService, match models.Match) {
	if len(match.Users) != 2 {
		return
	}
	a, errA := profiles.Get(ctx, match.Users[0])
	b, errB := profiles.Get(ctx, match.Users[1])
	if errA != nil || errB != nil {
		log.Printf("⚠️ Match %s email skipped: %v", match.MatchID, errors.Join(errA, errB))
		return
	}
	for _, pair := range [][2]*models.Profile{{a, b}, {b, a}} {
		if pair[0].EmailID == "" {
			continue
		}
		if err := email.SendMatchNotification(*pair[0], *pair[1]); err != nil {
			log.Printf("⚠️ Match email to %s failed: %v", pair[0].UserID, err)
		}
	}
}
