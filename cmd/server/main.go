package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-store/internal/client"
	"github.com/iliyamo/online-movie-store/internal/config"
	"github.com/iliyamo/online-movie-store/internal/database"
	"github.com/iliyamo/online-movie-store/internal/handler"
	"github.com/iliyamo/online-movie-store/internal/repository"
	"github.com/iliyamo/online-movie-store/internal/router"
	"github.com/iliyamo/online-movie-store/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	carts := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)
	engagement := repository.NewEngagementRepo(db)

	publisher := service.AMQPEmailPublisher{}
	provider := client.NewPaymentClient(cfg.Payment)

	orderSvc := service.NewOrderService(carts, orders)
	paymentSvc := service.NewPaymentService(payments, orders, users, provider, publisher,
		cfg.Payment.WebhookSecret, cfg.Payment.Currency)

	authH := handler.NewAuthHandler(cfg, users, tokens, publisher)
	movieH := handler.NewMovieHandler(movies)
	cartH := handler.NewCartHandler(carts, movies, orders)
	orderH := handler.NewOrderHandler(orderSvc, orders)
	payH := handler.NewPaymentHandler(paymentSvc, payments)
	engH := handler.NewEngagementHandler(engagement, movies)
	userH := handler.NewUserHandler(users, tokens)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rdb)
	router.RegisterPublic(e, movieH, engH, rdb)
	router.RegisterStore(e, cartH, orderH, payH, engH, cfg.JWTSecret)
	router.RegisterWebhook(e, payH)
	router.RegisterAdmin(e, movieH, orderH, payH, userH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
