// search.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/search"
	"github.com/localnerve/voternet/internal/utils"
)

// SearchHandler handles place search
type SearchHandler struct {
	Index *search.Index
}

// Search handles GET /api/search
// @Summary Search places
// @Description Search places by name or code
// @Tags Search
// @Produce json
// @Param q query string true "Query"
// @Param page query int false "Page, from 1"
// @Success 200 {object} search.Result
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return utils.ErrorResponse(c, "Query 'q' is required", fiber.StatusBadRequest, "input")
	}

	res, err := h.Index.Search(c.UserContext(), q, c.QueryInt("page", 1))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, res, fiber.StatusOK)
}
