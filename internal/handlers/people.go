// people.go
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

// PeopleHandler handles volunteer routes
type PeopleHandler struct {
	Places *services.PlaceStore
	People *services.PersonStore
	Access *services.Access
}

// GetPeople handles GET /api/people/{key}
// @Summary List people
// @Description List the people attached to a place, or to its whole subtree
// @Tags People
// @Produce json
// @Param key path string true "Place key"
// @Param role query string false "Roles to include, repeated or comma-separated"
// @Param subtree query bool false "Include everyone below the place"
// @Success 200 {array} models.Person
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /people/{key} [get]
func (h *PeopleHandler) GetPeople(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canView(c, h.Access, place); err != nil {
		return err
	}
	roles, err := parseRoles(c)
	if err != nil {
		return err
	}

	var people []models.Person
	if c.QueryBool("subtree") {
		people, err = h.People.SubtreePeople(c.UserContext(), place, roles...)
	} else {
		people, err = h.People.People(c.UserContext(), place, roles...)
	}
	if err != nil {
		return err
	}
	if people == nil {
		people = []models.Person{}
	}
	return utils.SuccessResponse(c, people, fiber.StatusOK)
}

// AddPerson handles POST /api/people/{key}
// @Summary Add a volunteer
// @Description Add a person to a place. A polling booth agent with a voter id is moved to the booth the electoral roll lists.
// @Tags People
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body services.VolunteerInput true "Volunteer"
// @Success 201 {object} models.Person
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /people/{key} [post]
func (h *PeopleHandler) AddPerson(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place); err != nil {
		return err
	}

	var in services.VolunteerInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(err)
	}
	p, err := h.People.AddVolunteer(c.UserContext(), middleware.Actor(c), place, in)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, p, fiber.StatusCreated)
}

// PersonUpdateInput is the body of UpdatePerson. Omitted fields are left alone.
type PersonUpdateInput struct {
	Name    *string      `json:"name,omitempty"`
	Email   *string      `json:"email,omitempty"`
	Phone   *string      `json:"phone,omitempty"`
	VoterID *string      `json:"voterid,omitempty"`
	Role    *string      `json:"role,omitempty"`
	Notes   *string      `json:"notes,omitempty"`
	PlaceID types.FlexID `json:"place_id,omitempty"`
}

// person loads the person in the :id parameter and checks the user may change them.
func (h *PeopleHandler) person(c *fiber.Ctx) (models.Person, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return models.Person{}, err
	}
	ctx := c.UserContext()
	p, err := h.People.FindByID(ctx, id)
	if err != nil {
		return models.Person{}, err
	}
	home, err := h.Places.FindByID(ctx, p.PlaceID)
	if err != nil {
		return models.Person{}, err
	}
	return p, canWrite(c, h.Access, &home)
}

// UpdatePerson handles PUT /api/person/{id}
// @Summary Update a person
// @Tags People
// @Accept json
// @Produce json
// @Param id path int true "Person ID"
// @Param body body handlers.PersonUpdateInput true "Changes"
// @Success 200 {object} models.Person
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /person/{id} [put]
func (h *PeopleHandler) UpdatePerson(c *fiber.Ctx) error {
	p, err := h.person(c)
	if err != nil {
		return err
	}

	var body PersonUpdateInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}
	fields := services.PersonUpdate{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		VoterID: body.VoterID,
		Role:    body.Role,
		Notes:   body.Notes,
		PlaceID: body.PlaceID.Ptr(),
	}
	if fields.PlaceID != nil && *fields.PlaceID != p.PlaceID {
		target, err := h.Places.FindByID(c.UserContext(), *fields.PlaceID)
		if err != nil {
			return err
		}
		if err := canWrite(c, h.Access, &target); err != nil {
			return err
		}
	}

	if err := h.People.Update(c.UserContext(), middleware.Actor(c), &p, fields); err != nil {
		return err
	}
	return utils.SuccessResponse(c, p, fiber.StatusOK)
}

// DeletePerson handles DELETE /api/person/{id}
// @Summary Delete a person
// @Tags People
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /person/{id} [delete]
func (h *PeopleHandler) DeletePerson(c *fiber.Ctx) error {
	p, err := h.person(c)
	if err != nil {
		return err
	}
	if err := h.People.Delete(c.UserContext(), middleware.Actor(c), &p); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, p.ID, 1)
}

// ImportInput is the body of ImportPeople
type ImportInput struct {
	Batch string                             `json:"batch"`
	Rows  types.FlexList[services.ImportRow] `json:"rows"`
}

// ImportPeople handles POST /api/import/{key}
// @Summary Import volunteers
// @Description Add many volunteers below a place. Duplicates and invalid rows are counted and skipped.
// @Tags People
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body handlers.ImportInput true "Rows"
// @Success 200 {object} services.ImportResult
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /import/{key} [post]
func (h *PeopleHandler) ImportPeople(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place); err != nil {
		return err
	}

	var body ImportInput
	if err := c.BodyParser(&body); err != nil {
		return badInput(err)
	}
	res, err := h.People.ImportVolunteers(c.UserContext(), middleware.Actor(c), place, body.Rows.Slice(), body.Batch)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, res, fiber.StatusOK)
}
