package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"marketscout/internal/comparables"
	"marketscout/internal/database"
	"marketscout/internal/evaluator"
	"marketscout/internal/handlers"
	"marketscout/internal/middleware"
	"marketscout/internal/scraper"
	"marketscout/internal/vehicle"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/marketscout.db"
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Wire the evaluation pipeline: sqlite price book + marketplace
	// search feed the comparable aggregator, which feeds the strategies
	search := scraper.NewMarketplaceScraper()
	defer search.Close()

	aggregator := comparables.New(db, search)
	estimator := vehicle.NewEstimator(vehicle.DefaultValuationConfig())
	pipeline := evaluator.DefaultPipeline(aggregator, estimator)

	// Initialize Gin router
	r := gin.Default()

	r.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
		"10.0.0.0/8",     // Private networks
		"192.168.0.0/16", // Private networks
	})

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Admin-Key"}
	r.Use(cors.New(config))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(rate.Limit(5), 10)))

	// Serve static files
	r.Static("/static", "./static")
	r.StaticFile("/", "./static/index.html")

	handler := handlers.NewScoutHandler(db, pipeline)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/inventory/summary", handler.InventorySummary)
		api.GET("/inventory/makes", handler.InventoryMakes)
		api.GET("/inventory/makes/:make/years", handler.YearsForMake)
		api.GET("/inventory/makes/:make/years/:year/models", handler.ModelsForMakeYear)
		api.GET("/inventory/:year/:make/:model/evaluations", handler.EvaluationsForVehicle)
		api.GET("/comparables/:year/:make/:model", handler.GetComparables)
		api.GET("/check/:itemId", handler.CheckItem)
		api.POST("/evaluate", middleware.EvaluateProtectionMiddleware(10*time.Second), handler.Evaluate)
		api.GET("/health", handler.Health)
	}

	// Admin routes, protected by the hashed admin key when configured
	if adminKeyHash := os.Getenv("ADMIN_KEY_HASH"); adminKeyHash != "" {
		admin := r.Group("/api/admin")
		admin.Use(middleware.AdminKeyMiddleware(adminKeyHash))
		{
			admin.GET("/comparables/keys", func(c *gin.Context) {
				keys, err := db.ComparableKeys()
				if err != nil {
					c.JSON(500, gin.H{"error": "Failed to load price book"})
					return
				}
				c.JSON(200, gin.H{"keys": keys})
			})
		}
	}

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 Scout server running at http://localhost:%s", port)
	log.Printf("📊 Database: %s", dbPath)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
