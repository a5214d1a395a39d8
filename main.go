package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"tastemap/activity"
	"tastemap/auth"
	"tastemap/comments"
	"tastemap/config"
	"tastemap/db"
	"tastemap/geocode"
	"tastemap/globals"
	"tastemap/overpass"
	"tastemap/ratelim"
	"tastemap/rdx"
	"tastemap/restaurants"
	"tastemap/routes"
	"tastemap/userdata"
	"tastemap/utils"
)

var startedAt = time.Now()

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// XSS, content sniffing, framing
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		// Referrer and permissions
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "microphone=(), camera=()")
		// Prevent caching
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

// Health reports liveness and uptime.
func Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(startedAt).Seconds(),
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithError(w, http.StatusNotFound, "Route not found")
}

// services holds the wired backends chosen by configuration.
type services struct {
	redis    *rdx.Client
	handlers routes.Handlers
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{}

	if cfg.UsesMongo() {
		if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
			return nil, err
		}
		if err := db.CreateIndexes(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.RedisAddr != "" {
		client, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, continuing without cache and events: %v", err)
		} else {
			s.redis = client
		}
	}

	var (
		restaurantStore restaurants.Store
		feedStore       activity.Store
		commentStore    comments.Store
		userRepo        userdata.Repository
	)
	if cfg.StoreBackend == config.BackendMongo {
		restaurantStore = restaurants.NewMongoStore(db.RestaurantsCollection)
		feedStore = activity.NewMongoStore(db.SocialFeedCollection)
		commentStore = comments.NewMongoStore(db.CommentsCollection)
	} else {
		restaurantStore = restaurants.NewMemoryStore()
		feedStore = activity.NewMemoryStore()
		commentStore = comments.NewMemoryStore()
	}
	if cfg.UserDataBackend == config.BackendMongo {
		userRepo = userdata.NewMongoRepository(db.UsersCollection)
	} else {
		userRepo = userdata.NewMemoryRepository()
	}

	source := overpass.NewClient(cfg.OverpassURL, cfg.OverpassTimeout)
	source.UserAgent = cfg.UserAgent
	var publisher activity.Publisher
	if s.redis != nil {
		source.Cache = s.redis
		source.CacheTTL = cfg.OverpassCacheTTL
		publisher = s.redis
	}

	accounts, err := auth.ParseAccounts(cfg.AdminAccounts)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		log.Println("⚠️ ADMIN_ACCOUNTS is empty; admin login is disabled")
	}

	restaurantService := restaurants.NewService(restaurantStore, source, cfg.DegradedFallback)
	feed := activity.NewFeed(feedStore, publisher, cfg.FeedMaxEntries)
	ledger := userdata.NewLedger(userRepo, restaurantService.Reconciler, feed)

	s.handlers = routes.Handlers{
		Restaurants: restaurants.NewHandler(restaurantService),
		Users:       userdata.NewHandler(ledger),
		Social:      activity.NewHandler(feed),
		Comments:    comments.NewHandler(comments.NewService(commentStore)),
		Geocode:     geocode.NewHandler(geocode.NewClient(cfg.NominatimURL, cfg.GeocodeTimeout, cfg.UserAgent)),
		Auth:        auth.NewHandler(auth.NewAuthenticator(accounts, cfg.JWTTTL)),
	}
	return s, nil
}

func (s *services) close(ctx context.Context) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("redis close: %v", err)
		}
	}
	if err := db.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
}

// setupRouter builds the router with every feature's routes.
func setupRouter(h routes.Handlers, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Health)
	router.NotFound = http.HandlerFunc(notFound)

	routes.RoutesWrapper(router, h, rateLimiter)
	return router
}

func main() {
	cfg := config.Load()
	globals.JwtSecret = []byte(cfg.JWTSecret)

	svc, err := buildServices(globals.Ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Startup failed: %v", err)
	}

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	router := setupRouter(svc.handlers, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      40 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Closing database and cache connections...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.close(ctx)
	})

	go func() {
		log.Printf("🚀 Server listening on %s (store=%s, userdata=%s)", cfg.Port, cfg.StoreBackend, cfg.UserDataBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
