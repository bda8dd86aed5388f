package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/cache"
	"backend/internal/catalog"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/payment"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           POS Transaction & Compliance API
// @version         1.0
// @description     Multi-region point-of-sale engine: pricing, loyalty, e-gifts, offline sync, risk and royalties.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Region, compliance and flavor reference data. CATALOG_DIR points at a
	// directory of YAML overrides; without it the built-in set applies.
	cat := catalog.Default()
	if dir := os.Getenv("CATALOG_DIR"); dir != "" {
		loaded, err := catalog.Load(dir)
		if err != nil {
			log.Fatalf("Catalog load failed: %v", err)
		}
		cat = loaded
		log.Printf("Loaded catalog from %s", dir)
	}

	// QR replay tracking needs shared state across instances; fall back to
	// single-window expiry when Redis is absent.
	var replayCache cache.ReplayCache = cache.NoopReplayCache{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisCache := cache.NewRedisReplayCache(addr, os.Getenv("REDIS_PASSWORD"), redisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		cancel()
		replayCache = redisCache
		log.Println("Connected to Redis successfully.")
	} else {
		log.Println("REDIS_ADDR not set; QR replay tracking disabled")
	}

	var provider payment.Provider = payment.NewSandboxProvider()
	if url := os.Getenv("PAYMENT_PROVIDER_URL"); url != "" {
		provider = payment.NewHTTPProvider(url)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	cashierRepo := repository.NewCashierRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	offlineRepo := repository.NewOfflineRepository(db)
	egiftRepo := repository.NewEGiftRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	franchiseRepo := repository.NewFranchiseRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	cashierService := service.NewCashierService(cashierRepo, auditRepo)
	pricingService := service.NewPricingService(cat)
	loyaltyService := service.NewLoyaltyService(loyaltyRepo)
	egiftService := service.NewEGiftService(egiftRepo, auditRepo, cat)
	tokenService := service.NewTokenService(middleware.GetJWTSecret(), service.DefaultTokenMaxAge, replayCache)
	inventoryService := service.NewInventoryService(inventoryRepo, auditRepo, txManager, wsHub)
	checkoutService := service.NewCheckoutService(cat, txRepo, txManager, loyaltyService, egiftService, provider, inventoryService, auditRepo, wsHub)
	offlineService := service.NewOfflineService(offlineRepo, checkoutService, auditRepo, wsHub)
	riskService := service.NewRiskService(riskRepo, auditRepo)
	royaltyService := service.NewRoyaltyService(franchiseRepo, txRepo, auditRepo, cat)
	statisticsService := service.NewStatisticsService(txRepo, cat)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	cashierHandler := handler.NewCashierHandler(cashierService)
	catalogHandler := handler.NewCatalogHandler(cat)
	posHandler := handler.NewPosHandler(pricingService, checkoutService)
	egiftHandler := handler.NewEGiftHandler(egiftService)
	tokenHandler := handler.NewTokenHandler(tokenService)
	syncHandler := handler.NewSyncHandler(offlineService, checkoutService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	riskHandler := handler.NewRiskHandler(riskService)
	royaltyHandler := handler.NewRoyaltyHandler(royaltyService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	cashierHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	posHandler.RegisterRoutes(router.Group(""))
	egiftHandler.RegisterRoutes(router.Group(""))
	tokenHandler.RegisterRoutes(router.Group(""))
	syncHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	riskHandler.RegisterRoutes(router.Group(""))
	royaltyHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
