package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shareloop/shareloop-backend/internal/database"
	"github.com/shareloop/shareloop-backend/internal/handlers"
	"github.com/shareloop/shareloop-backend/internal/middleware"
	"github.com/shareloop/shareloop-backend/internal/repository"
	"github.com/shareloop/shareloop-backend/internal/service"
	"github.com/shareloop/shareloop-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Booking core
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, itemRepo)

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Sharer-User-Id"}
	r.Use(cors.New(config))

	// Serve locally stored item images
	r.Static("/uploads", "/app/uploads")

	// Routes
	api := r.Group("/api")
	{
		// Registration needs no caller identity
		api.POST("/users", handlers.RegisterUser(db))

		// WebSocket connection
		api.GET("/ws", middleware.Identity(), handlers.WebSocketHandler(hub))

		// Everything else carries a trusted caller id set by the edge tier
		identified := api.Group("/")
		identified.Use(middleware.Identity())
		{
			users := identified.Group("/users")
			{
				users.GET("", handlers.ListUsers(db))
				users.GET("/:id", handlers.GetUser(db))
				users.PATCH("/:id", handlers.UpdateUser(db))
				users.DELETE("/:id", handlers.DeleteUser(db))
			}

			items := identified.Group("/items")
			{
				items.POST("", handlers.CreateItem(db))
				items.GET("", handlers.ListOwnerItems(db, bookingSvc))
				items.GET("/search", handlers.SearchItems(db))
				items.GET("/:id", handlers.GetItem(db, bookingSvc))
				items.PATCH("/:id", handlers.UpdateItem(db))
				items.POST("/:id/image", handlers.UploadItemImage(db))
				items.POST("/:id/comment", handlers.AddComment(db))
			}

			requests := identified.Group("/requests")
			{
				requests.POST("", handlers.CreateItemRequest(db))
				requests.GET("", handlers.ListOwnRequests(db))
				requests.GET("/all", handlers.ListOtherRequests(db))
				requests.GET("/:id", handlers.GetItemRequest(db))
			}

			bookings := identified.Group("/bookings")
			{
				bookings.POST("", handlers.CreateBooking(bookingSvc, hub))
				bookings.GET("", handlers.GetBookerBookings(bookingSvc))
				bookings.GET("/owner", handlers.GetOwnerBookings(bookingSvc))
				bookings.GET("/:id", handlers.GetBooking(bookingSvc))
				bookings.PATCH("/:id", handlers.DecideBooking(bookingSvc, hub))
				bookings.DELETE("", handlers.ClearBookings(bookingSvc))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
