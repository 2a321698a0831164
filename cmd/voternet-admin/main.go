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

	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/database"
	"github.com/localnerve/voternet/internal/electoralroll"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/messaging"
	"github.com/localnerve/voternet/internal/search"
	"github.com/localnerve/voternet/internal/services"
	"gorm.io/gorm"
)

// app holds the stores shared by every command. It is built by rootCmd before a command runs.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	db     *gorm.DB
	places *services.PlaceStore
	people *services.PersonStore
	things *services.ThingStore
	ledger *services.Ledger
}

var current *app

func setup(envFile string) (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	c := cache.New()
	clock := clockwork.NewRealClock()
	roll := electoralroll.NewClient(electoralroll.Options{
		URL:      cfg.ElectoralRollURL,
		District: cfg.ElectoralRollDistrict,
		Timeout:  cfg.LookupTimeout,
		Logger:   log,
	})

	a := &app{cfg: cfg, log: log, db: db}
	a.ledger = services.NewLedger(db, c, clock, cfg.Location(), log)
	a.places = services.NewPlaceStore(db, c, a.ledger, log)
	a.people = services.NewPersonStore(db, c, a.places, a.ledger, roll, log)
	a.things = services.NewThingStore(db, clock, cfg.Location())
	return a, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Warn("close database", "error", err)
	}
}

// openIndex opens the configured search index and attaches it to the place store.
func (a *app) openIndex() (*search.Index, error) {
	ix, err := search.Open(a.cfg.SearchIndexPath)
	if err != nil {
		return nil, err
	}
	a.places.SetIndexer(ix)
	return ix, nil
}

func (a *app) senders() (messaging.Mailer, messaging.SMSSender, error) {
	mailer, err := messaging.NewMailer(a.cfg, a.log, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	return mailer, messaging.NewSMSSender(a.cfg, a.log), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
