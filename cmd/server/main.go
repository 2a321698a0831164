// main.go
//
// Volunteer and voter management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of voternet.
// voternet is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// voternet is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with voternet.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/database"
	"github.com/localnerve/voternet/internal/electoralroll"
	"github.com/localnerve/voternet/internal/handlers"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/messaging"
	"github.com/localnerve/voternet/internal/search"
	"github.com/localnerve/voternet/internal/services"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/localnerve/voternet/docs/api" // Swagger docs
)

// @title Voternet API
// @version 1.0.0
// @description Volunteer and voter management data service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/voternet
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	// Run auto-migrations, unless the schema is managed by the init scripts
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	c := cache.New()
	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	roll := electoralroll.NewClient(electoralroll.Options{
		URL:      cfg.ElectoralRollURL,
		District: cfg.ElectoralRollDistrict,
		Timeout:  cfg.LookupTimeout,
		Logger:   log,
	})

	ledger := services.NewLedger(db, c, clock, loc, log)
	places := services.NewPlaceStore(db, c, ledger, log)
	people := services.NewPersonStore(db, c, places, ledger, roll, log)
	things := services.NewThingStore(db, clock, loc)
	access := services.NewAccess(places, people, cfg.SuperAdmins)

	index, err := search.Open(cfg.SearchIndexPath)
	if err != nil {
		return err
	}
	defer index.Close()
	places.SetIndexer(index)
	if n, err := index.Count(); err == nil && n == 0 {
		all, err := places.All(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load places for the search index: %w", err)
		}
		if err := index.Reindex(context.Background(), all); err != nil {
			return err
		}
		log.Info("search index built", "places", len(all))
	}

	mailer, err := messaging.NewMailer(cfg, log, os.Stdout)
	if err != nil {
		return err
	}
	signup := services.NewSignup(people, places, mailer, cfg.AdminBCC, cfg.BaseURL, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus.MustRegister(c.Collectors()...)
	prometheus.MustRegister(messaging.Collectors()...)
	metrics := fiberprometheus.New("voternet")
	metrics.RegisterAt(app, "/metrics")
	app.Use(metrics.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	handlers.Register(app, handlers.Services{
		Places:   places,
		People:   people,
		Ledger:   ledger,
		Things:   things,
		Access:   access,
		Signup:   signup,
		Index:    index,
		Sessions: services.NewSessionAuth(cfg, log),
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigs
		log.Info("gracefully shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("starting server", "port", cfg.Port, "db", cfg.DBType)
	return app.Listen(":" + cfg.Port)
}
