// routes.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/middleware"
	"github.com/localnerve/voternet/internal/search"
	"github.com/localnerve/voternet/internal/services"
)

// Services are the dependencies of the API routes. Index and Signup are optional;
// their routes are not registered when they are nil.
type Services struct {
	Places   *services.PlaceStore
	People   *services.PersonStore
	Ledger   *services.Ledger
	Things   *services.ThingStore
	Access   *services.Access
	Signup   *services.Signup
	Index    *search.Index
	Sessions services.SessionValidator
}

// Register mounts the API under /api.
func Register(app *fiber.App, s Services) {
	api := app.Group("/api")

	auth := &middleware.Auth{Sessions: s.Sessions, Access: s.Access}
	place := middleware.Place(s.Places)

	placeHandler := &PlaceHandler{Places: s.Places, Things: s.Things, Access: s.Access}
	peopleHandler := &PeopleHandler{Places: s.Places, People: s.People, Access: s.Access}
	ledgerHandler := &LedgerHandler{Ledger: s.Ledger, Access: s.Access}
	exportHandler := &ExportHandler{Places: s.Places, People: s.People, Access: s.Access}

	// Place routes
	api.Get("/places/*", auth.Required(), place, placeHandler.GetPlace)
	api.Put("/places/*", auth.Required(), place, placeHandler.UpdatePlace)
	api.Delete("/places/*", auth.Required(), place, placeHandler.DeletePlace)
	api.Get("/children/*", auth.Required(), place, placeHandler.GetChildren)
	api.Post("/children/*", auth.Required(), place, placeHandler.AddChild)
	api.Post("/bulk/*", auth.Required(), place, placeHandler.BulkAdd)
	api.Get("/info/*", auth.Required(), place, placeHandler.GetInfo)
	api.Put("/info/*", auth.Required(), place, placeHandler.SetInfo)

	// People routes
	api.Get("/people/*", auth.Required(), place, peopleHandler.GetPeople)
	api.Post("/people/*", auth.Required(), place, peopleHandler.AddPerson)
	api.Post("/import/*", auth.Required(), place, peopleHandler.ImportPeople)
	api.Put("/person/:id", auth.Required(), peopleHandler.UpdatePerson)
	api.Delete("/person/:id", auth.Required(), peopleHandler.DeletePerson)

	// Ledger routes
	api.Get("/coverage/*", auth.Required(), place, ledgerHandler.GetCoverage)
	api.Post("/coverage/*", auth.Required(), place, ledgerHandler.AddCoverage)
	api.Get("/summary/*", auth.Required(), place, ledgerHandler.GetSummary)
	api.Get("/activity/*", auth.Required(), place, ledgerHandler.GetActivity)

	api.Get("/export/*", auth.Required(), place, exportHandler.Export)

	if s.Index != nil {
		searchHandler := &SearchHandler{Index: s.Index}
		api.Get("/search", auth.Required(), searchHandler.Search)
	}

	// Public signup
	if s.Signup != nil {
		signupHandler := &SignupHandler{Signup: s.Signup}
		api.Post("/signup/*", place, signupHandler.Register)
	}
}
