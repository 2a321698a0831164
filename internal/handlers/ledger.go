// ledger.go
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
	"errors"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/middleware"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/types"
	"github.com/localnerve/voternet/internal/utils"
)

// coverageRoles may record coverage for their own place, on top of the write roles.
var coverageRoles = []models.Role{models.RoleVolunteer, models.RolePBAgent}

// LedgerHandler handles coverage, summary and activity routes
type LedgerHandler struct {
	Ledger *services.Ledger
	Access *services.Access
}

// GetCoverage handles GET /api/coverage/{key}
// @Summary Get coverage
// @Description Get the coverage recorded for a place on a date, today by default
// @Tags Ledger
// @Produce json
// @Param key path string true "Place key"
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} models.Coverage
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /coverage/{key} [get]
func (h *LedgerHandler) GetCoverage(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}

	cov, err := h.Ledger.Coverage(c.UserContext(), place, c.Query("date", h.Ledger.Today()))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return err
	}
	return utils.SuccessResponse(c, cov, fiber.StatusOK)
}

// CoverageInput is the body of AddCoverage
type CoverageInput struct {
	Date string                         `json:"date"`
	Rows types.FlexList[map[string]any] `json:"rows"`
}

// AddCoverage handles POST /api/coverage/{key}
// @Summary Record coverage
// @Description Replace the coverage of a place on a date, today by default
// @Tags Ledger
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body handlers.CoverageInput true "Coverage rows"
// @Success 200 {object} models.Coverage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /coverage/{key} [post]
func (h *LedgerHandler) AddCoverage(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place, slices.Concat(services.DefaultWriteRoles, coverageRoles)...); err != nil {
		return err
	}

	var body CoverageInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}
	if body.Date == "" {
		body.Date = h.Ledger.Today()
	}

	cov, err := h.Ledger.AddCoverage(c.UserContext(), middleware.Actor(c), place, body.Date, body.Rows.Slice())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, cov, fiber.StatusOK)
}

// GetSummary handles GET /api/summary/{key}
// @Summary Get dashboard summaries
// @Description Daily series and totals of coverage and volunteers over the subtree of a place
// @Tags Ledger
// @Produce json
// @Param key path string true "Place key"
// @Param metric query string false "coverage or volunteers, both by default"
// @Success 200 {array} services.Summary
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /summary/{key} [get]
func (h *LedgerHandler) GetSummary(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}

	metrics := []services.Metric{services.MetricCoverage, services.MetricVolunteers}
	if q := c.Query("metric"); q != "" {
		m, err := services.ParseMetric(q)
		if err != nil {
			return err
		}
		metrics = []services.Metric{m}
	}

	out, err := h.Ledger.Summaries(c.UserContext(), place, metrics...)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, out, fiber.StatusOK)
}

// GetActivity handles GET /api/activity/{key}
// @Summary Recent activity
// @Tags Ledger
// @Produce json
// @Param key path string true "Place key"
// @Param limit query int false "At most this many entries, 50 by default"
// @Success 200 {array} models.Activity
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /activity/{key} [get]
func (h *LedgerHandler) GetActivity(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}

	out, err := h.Ledger.RecentActivity(c.UserContext(), place, c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Activity{}
	}
	return utils.SuccessResponse(c, out, fiber.StatusOK)
}
