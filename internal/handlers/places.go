// places.go
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
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/types"
	"github.com/localnerve/voternet/internal/utils"
)

// PlaceHandler handles place tree routes
type PlaceHandler struct {
	Places *services.PlaceStore
	Things *services.ThingStore
	Access *services.Access
}

// PlaceView is a place with the context shown on its page
type PlaceView struct {
	Place        models.Place         `json:"place"`
	Ancestors    []models.Place       `json:"ancestors"`
	Counts       services.PlaceCounts `json:"counts"`
	Coordinators []models.Person      `json:"coordinators"`
	Info         services.PlaceInfo   `json:"info"`
	Writable     bool                 `json:"writable"`
}

// GetPlace handles GET /api/places/{key}
// @Summary Get a place
// @Description Get a place with its ancestors, subtree counts, coordinators and info
// @Tags Places
// @Produce json
// @Param key path string true "Place key, e.g. KA/AC001"
// @Success 200 {object} handlers.PlaceView
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /places/{key} [get]
func (h *PlaceHandler) GetPlace(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}
	ctx := c.UserContext()

	view := PlaceView{Place: *place}
	var err error
	if view.Ancestors, err = h.Places.Ancestors(ctx, place); err != nil {
		return err
	}
	if view.Counts, err = h.Places.Counts(ctx, place); err != nil {
		return err
	}
	if view.Coordinators, err = h.Places.Coordinators(ctx, place); err != nil {
		return err
	}
	if view.Info, err = h.Things.PlaceInfo(ctx, place); err != nil {
		return err
	}
	if view.Writable, err = h.Access.WritableBy(ctx, place, middleware.Email(c)); err != nil {
		return err
	}

	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// GetChildren handles GET /api/children/{key}
// @Summary List child places
// @Description List the places of the given type below a place, the next type down by default
// @Tags Places
// @Produce json
// @Param key path string true "Place key"
// @Param type query string false "Place type, e.g. PB"
// @Success 200 {array} models.Place
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /children/{key} [get]
func (h *PlaceHandler) GetChildren(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}

	var kinds []models.PlaceType
	if q := c.Query("type"); q != "" {
		t, err := models.ParsePlaceType(q)
		if err != nil {
			return services.NewValidationError("type", "%s is not a place type", q)
		}
		kinds = append(kinds, t)
	}

	children, err := h.Places.Children(c.UserContext(), place, kinds...)
	if err != nil {
		return err
	}
	if children == nil {
		children = []models.Place{}
	}
	return utils.SuccessResponse(c, children, fiber.StatusOK)
}

// AddChildInput is the body of AddChild
type AddChildInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Code string `json:"code"`
}

// AddChild handles POST /api/children/{key}
// @Summary Add a child place
// @Description Add a place below another. The code is generated when left empty.
// @Tags Places
// @Accept json
// @Produce json
// @Param key path string true "Parent place key"
// @Param body body handlers.AddChildInput true "New place"
// @Success 201 {object} models.Place
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /children/{key} [post]
func (h *PlaceHandler) AddChild(c *fiber.Ctx) error {
	parent := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, parent); err != nil {
		return err
	}

	var body AddChildInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}
	t, ok := parent.Type.Next()
	if body.Type != "" {
		var err error
		if t, err = models.ParsePlaceType(body.Type); err != nil {
			return services.NewValidationError("type", "%s is not a place type", body.Type)
		}
	} else if !ok {
		return services.NewValidationError("type", "a %s has no children", parent.Type)
	}

	child, err := h.Places.AddSubplace(c.UserContext(), parent, body.Name, t, body.Code)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, child, fiber.StatusCreated)
}

// BulkAdd handles POST /api/bulk/{key}
// @Summary Add or rename child places in bulk
// @Description One child per line. A line ending in "{{ CODE }}" renames that child.
// @Tags Places
// @Accept json
// @Produce json
// @Param key path string true "Parent place key"
// @Param body body object true "{\"text\": \"...\"}"
// @Success 200 {object} services.BulkResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /bulk/{key} [post]
func (h *PlaceHandler) BulkAdd(c *fiber.Ctx) error {
	parent := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, parent); err != nil {
		return err
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}

	res, err := h.Places.BulkAddPlaces(c.UserContext(), middleware.Actor(c), parent, body.Text)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, res, fiber.StatusOK)
}

// UpdatePlaceInput is the body of UpdatePlace. Empty fields are left alone.
type UpdatePlaceInput struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

// UpdatePlace handles PUT /api/places/{key}
// @Summary Rename or move a place
// @Description Rename a place and/or attach it, with its subtree, under another place
// @Tags Places
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body handlers.UpdatePlaceInput true "Changes"
// @Success 200 {object} models.Place
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /places/{key} [put]
func (h *PlaceHandler) UpdatePlace(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place); err != nil {
		return err
	}
	ctx := c.UserContext()

	var body UpdatePlaceInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}

	if body.Parent != "" {
		ancestor, err := h.Places.FindByKey(ctx, body.Parent)
		if err != nil {
			return err
		}
		if err := canWrite(c, h.Access, &ancestor); err != nil {
			return err
		}
		if err := h.Places.SetParent(ctx, place, ancestor.Type, &ancestor); err != nil {
			return err
		}
	}
	if body.Name != "" {
		if err := h.Places.Rename(ctx, place, body.Name); err != nil {
			return err
		}
	}

	updated, err := h.Places.FindByID(ctx, place.ID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// DeletePlace handles DELETE /api/places/{key}
// @Summary Delete a place
// @Description Delete a place, its subtree and everyone attached to them
// @Tags Places
// @Produce json
// @Param key path string true "Place key"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /places/{key} [delete]
func (h *PlaceHandler) DeletePlace(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	ctx := c.UserContext()

	parent, ok, err := h.Places.Parent(ctx, place)
	if err != nil {
		return err
	}
	switch {
	case ok:
		if err := canWrite(c, h.Access, &parent); err != nil {
			return err
		}
	case !h.Access.IsSuperAdmin(middleware.Email(c)):
		return types.NewError(fiber.StatusForbidden, "authorization", "Only a super admin may delete %s", place.Key)
	}

	if err := h.Places.Delete(ctx, place); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, place.ID, 1)
}

// GetInfo handles GET /api/info/{key}
// @Summary Get place info
// @Tags Places
// @Produce json
// @Param key path string true "Place key"
// @Success 200 {object} services.PlaceInfo
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /info/{key} [get]
func (h *PlaceHandler) GetInfo(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}
	info, err := h.Things.PlaceInfo(c.UserContext(), place)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, info, fiber.StatusOK)
}

// PlaceInfoInput is the body of SetInfo
type PlaceInfoInput struct {
	Links      types.FlexList[services.Link] `json:"links"`
	Localities types.FlexList[string]        `json:"localities"`
	Notes      string                        `json:"notes"`
}

// SetInfo handles PUT /api/info/{key}
// @Summary Set place info
// @Description Replace the links, localities and notes kept for a place
// @Tags Places
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body handlers.PlaceInfoInput true "Place info"
// @Success 200 {object} services.PlaceInfo
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /info/{key} [put]
func (h *PlaceHandler) SetInfo(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place); err != nil {
		return err
	}

	var body PlaceInfoInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}
	info := services.PlaceInfo{Links: body.Links.Slice(), Localities: body.Localities.Slice(), Notes: body.Notes}
	if err := h.Things.SetPlaceInfo(c.UserContext(), place, info); err != nil {
		return err
	}
	return utils.SuccessResponse(c, info, fiber.StatusOK)
}
