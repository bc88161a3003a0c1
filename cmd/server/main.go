package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/config"
	"github.com/iliyamo/tour-booking-api/internal/database"
	"github.com/iliyamo/tour-booking-api/internal/handler"
	"github.com/iliyamo/tour-booking-api/internal/middleware"
	"github.com/iliyamo/tour-booking-api/internal/queue"
	"github.com/iliyamo/tour-booking-api/internal/repository"
	"github.com/iliyamo/tour-booking-api/internal/router"
	queue_publisher "github.com/iliyamo/tour-booking-api/internal/service"
)

func main() {
	// .env is optional; containers inject real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: nil disables rate limiting and response caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	customers := repository.NewCustomerRepo(db)
	categories := repository.NewCategoryRepo(db)
	locations := repository.NewLocationRepo(db)
	tours := repository.NewTourRepo(db)
	images := repository.NewImageRepo(db)
	schedules := repository.NewScheduleRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviews := repository.NewReviewRepo(db)

	var events handler.EventPublisher = queue_publisher.Publisher{}

	auth := handler.NewAuthHandler(cfg, users, tokens, customers)
	public := handler.NewPublicHandler(categories, locations, tours, images, schedules, reviews)
	booking := handler.NewCustomerBookingHandler(schedules, bookings, customers, events)
	payment := handler.NewCustomerPaymentHandler(payments, bookings, customers, events)
	review := handler.NewCustomerReviewHandler(reviews, bookings, customers)
	adminCatalog := handler.NewAdminCatalogHandler(categories, locations)
	adminTour := handler.NewAdminTourHandler(tours, images)
	adminSchedule := handler.NewAdminScheduleHandler(schedules, tours)
	adminBooking := handler.NewAdminBookingHandler(bookings, schedules, payments)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, public, cache)
	router.RegisterCustomer(e, booking, payment, review, cfg.JWTSecret)
	router.RegisterAdmin(e, adminCatalog, adminTour, adminSchedule, adminBooking, cfg.JWTSecret)

	// Background consumer mirrors booking events into logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
