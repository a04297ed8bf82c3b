package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/abelzimusi/order-verification-app/handlers/auth"
	"github.com/abelzimusi/order-verification-app/handlers/branches"
	"github.com/abelzimusi/order-verification-app/handlers/orders"
	"github.com/abelzimusi/order-verification-app/handlers/webhook"
	"github.com/abelzimusi/order-verification-app/migrations"
	"github.com/abelzimusi/order-verification-app/seed"
	"github.com/abelzimusi/order-verification-app/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	r := gin.Default()

	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(corsOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()
	utils.InitJWT()

	migrations.MigrateBranches()
	migrations.MigrateOrders()
	migrations.MigrateTransactionCodes()
	migrations.MigrateUsers()

	if err := seed.SeedBranches(); err != nil {
		log.Fatalf("Failed to seed branches: %v", err)
	}
	if err := seed.SeedAdminUser(); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	tz := os.Getenv("SERVICE_TZ")
	if tz == "" {
		tz = "Africa/Harare"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("Invalid SERVICE_TZ %q: %v", tz, err)
	}

	var allowedSenders []string
	if raw := os.Getenv("ALLOWED_SENDERS"); raw != "" {
		allowedSenders = strings.Split(raw, ",")
	}

	processor := webhook.NewProcessor(
		utils.DB,
		utils.NewUltraMsgClient(),
		utils.NewOCRClient(),
		webhook.NewHTTPMediaFetcher(),
		loc,
		allowedSenders,
	)

	api := r.Group("/api")
	webhook.RegisterWebhookRoutes(api, processor)
	api.POST("/auth/login", auth.Login)

	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware())
	branches.RegisterBranchRoutes(protected)
	orders.RegisterOrderRoutes(protected)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
