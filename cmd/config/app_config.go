package config

import (
	"os"
	"strconv"
	"time"

	"ecocycle-backend/internal/api/handlers"
	"ecocycle-backend/internal/api/routes"
	"ecocycle-backend/internal/middleware"
	"ecocycle-backend/internal/utils"
	"ecocycle-backend/internal/utils/storage"
	"ecocycle-backend/pkg/classifier"
	"ecocycle-backend/pkg/location"
	"ecocycle-backend/pkg/waste"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         16 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	jitterRadius := float64(location.DefaultRadiusMeters)
	if raw := utils.GetConfig("JITTER_RADIUS_M"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			jitterRadius = parsed
		}
	}

	// Repository
	wasteRepository := waste.NewWasteRepository(db)

	// Service
	classifierService := classifier.NewClassifierService("")
	jitterer := location.NewJitterer(jitterRadius, nil)
	wasteService := waste.NewWasteService(wasteRepository, classifierService, jitterer, s3)

	// Handler
	wasteHandler := handlers.NewWasteHandler(wasteService, validator)

	// routes
	routesConfig := routes.Config{
		App:          app,
		WasteHandler: wasteHandler,
		Middleware:   middlewares,
	}
	routesConfig.Setup()
	return app, nil
}
