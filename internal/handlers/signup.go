// signup.go
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
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/utils"
)

// SignupHandler handles public volunteer signup
type SignupHandler struct {
	Signup *services.Signup
}

// Register handles POST /api/signup/{key}
// @Summary Sign up as a polling booth agent
// @Description Public signup. A thank you email is sent, copied to the coordinators of the place.
// @Tags Signup
// @Accept json
// @Produce json
// @Param key path string true "Place key"
// @Param body body services.VolunteerInput true "Volunteer"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /signup/{key} [post]
func (h *SignupHandler) Register(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)

	var in services.VolunteerInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(err)
	}
	p, err := h.Signup.Register(c.UserContext(), place, in)
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, p.ID, 1)
}
