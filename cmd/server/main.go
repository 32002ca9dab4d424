// main.go
//
// Collaborative state service and content pipeline for the chapter viewer
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of chapterviewer.
// chapterviewer is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// chapterviewer is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with chapterviewer.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/database"
	"github.com/localnerve/chapterviewer/internal/services"

	_ "github.com/localnerve/chapterviewer/docs/api" // Swagger docs
)

// @title Chapter Viewer State API
// @version 1.0.0
// @description Collaborative review state for the chapter viewer: file marks, comments, property assignments and to-do statuses
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/chapterviewer
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
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, db, err := services.OpenStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open %s record store: %v", cfg.StoreType, err)
	}
	if db != nil {
		defer database.Close(db)
	}

	app := newApp(cfg, appOptions{
		Store:   store,
		DB:      db,
		Metrics: true,
		Logging: true,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s (store: %s, book: %s)", port, cfg.StoreType, cfg.BookID)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
