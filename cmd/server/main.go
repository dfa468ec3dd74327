package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"wastetrack-backend/internal/config"
	"wastetrack-backend/internal/database"
	"wastetrack-backend/internal/events"
	"wastetrack-backend/internal/handlers"
	"wastetrack-backend/internal/middleware"
	"wastetrack-backend/internal/models"
	"wastetrack-backend/internal/services"
	"wastetrack-backend/internal/store"
	"wastetrack-backend/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 WASTETRACK BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Invalid configuration")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Printf("✅ Configuration loaded: %s", cfg)

	// Connect to database
	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Network connectivity issue")
		log.Println("   4. Invalid credentials")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	// Run migrations
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Println("❌ FATAL ERROR: Database migrations failed")
		log.Fatal(err)
	}
	log.Println("✅ Database migrations completed")

	// Seed database
	log.Println("🌱 Seeding database with initial data...")
	if err := database.SeedUsers(db); err != nil {
		log.Println("❌ FATAL ERROR: User seeding failed")
		log.Fatal(err)
	}
	log.Println("✅ Users seeded successfully")

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	if cfg.FirebaseCredentialsB64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(cfg.FirebaseCredentialsB64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmService, err = services.NewFCMService(cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize services
	classifier := services.NewClassifierService(cfg.OpenAIAPIKey)
	if classifier.Enabled() {
		log.Println("✅ Waste classifier initialized")
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set, classifier running in fallback mode")
	}

	var uploader services.ImageUploader
	if cfg.CloudinaryURL != "" {
		cldUploader, err := services.NewCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			log.Printf("⚠️  Failed to initialize Cloudinary: %v (image storage disabled)", err)
		} else {
			uploader = cldUploader
			log.Println("✅ Cloudinary image storage initialized")
		}
	} else {
		log.Println("⚠️  CLOUDINARY_URL not set, image storage disabled")
	}

	geocoder := services.NewGeocodingService(cfg.HereAPIKey)
	if geocoder.Enabled() {
		log.Println("✅ Reverse geocoding initialized")
	} else {
		log.Println("⚠️  HERE_API_KEY not set, reverse geocoding disabled")
	}

	// Store and event bus
	sqlStore := store.NewSQLStore(db)
	bus := events.NewBus()

	// WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Route pickup lifecycle events to connected clients
	bus.SubscribeAll(wsHub.HandleEvent)

	// Push notifications: drivers hear about new pickups, reporters about collections
	if fcmService != nil {
		bus.Subscribe(events.KindNewPickup, func(evt events.Event) {
			tokens, err := sqlStore.TokensForRole(context.Background(), models.RoleDriver)
			if err != nil || len(tokens) == 0 {
				return
			}
			if err := fcmService.SendNewPickupNotification(tokens, evt.Data.ID, string(evt.Data.Category), string(evt.Data.RiskLevel)); err != nil {
				log.Printf("⚠️ Failed to push new_pickup notification: %v", err)
			}
		})

		bus.Subscribe(events.KindPickupCollected, func(evt events.Event) {
			if evt.Data.ReporterID == nil {
				return
			}
			tokens, err := sqlStore.TokensForUser(context.Background(), *evt.Data.ReporterID)
			if err != nil || len(tokens) == 0 {
				return
			}
			for _, token := range tokens {
				if err := fcmService.SendPickupCollectedNotification(token, evt.Data.ID); err != nil {
					log.Printf("⚠️ Failed to push pickup_collected notification: %v", err)
				}
			}
		})
		log.Println("✅ Push notification routing wired")
	}

	wasteDeps := handlers.WasteDeps{
		Entries:    sqlStore,
		Classifier: classifier,
		Uploader:   uploader,
		Geocoder:   geocoder,
		Bus:        bus,
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint (token travels in the URI path)
	r.Get("/waste/ws/{token}", websocket.HandleWebSocket(wsHub, sqlStore, cfg.JWTSecret))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Authentication routes (no auth required)
		r.Post("/auth/login", handlers.Login(sqlStore, cfg.JWTSecret))
		r.Post("/auth/register", handlers.Register(sqlStore, cfg.JWTSecret))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Post("/waste/classify", handlers.Classify(wasteDeps))
			r.Get("/waste/history", handlers.History(sqlStore))
			r.Get("/waste/analytics", handlers.Analytics(sqlStore))
			r.Get("/waste/{id}", handlers.GetEntry(sqlStore))

			r.Post("/users/fcm-token", handlers.RegisterFCMToken(sqlStore))

			// Driver routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleDriver))

				r.Get("/waste/pending", handlers.Pending(sqlStore))
				r.Post("/waste/{id}/accept", handlers.Accept(sqlStore, bus))
				r.Post("/waste/{id}/collect", handlers.Collect(wasteDeps))
			})

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Post("/waste/{id}/status", handlers.CorrectStatus(sqlStore, bus))
				r.Get("/waste/entries", handlers.ListAll(sqlStore))
				r.Get("/drivers/active", handlers.ActiveDrivers(sqlStore))
			})
		})
	})

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Start server
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Println("❌ FATAL ERROR: Server failed to start")
		log.Fatal(err)
	}
}
