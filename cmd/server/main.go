package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	webAdapter "billflow/internal/adapters/web"
	"billflow/internal/app"
	"billflow/internal/core"
	"billflow/internal/db"
	"billflow/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	settingsService := core.NewSettingsService(pool)
	sequenceService := core.NewSequenceService(pool)
	clientService := core.NewClientService(pool)
	invoiceService := core.NewInvoiceService(pool, sequenceService)
	paymentService := core.NewPaymentService(pool, sequenceService)
	reminderService := core.NewReminderService(pool, settingsService, nil)
	userService := core.NewUserService(pool)

	svc := app.NewAppService(userService, clientService, invoiceService,
		paymentService, reminderService, settingsService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
