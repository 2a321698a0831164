// export.go
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
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/export"
	"github.com/localnerve/voternet/internal/middleware"
	"github.com/localnerve/voternet/internal/services"
)

// ExportHandler handles spreadsheet downloads
type ExportHandler struct {
	Places *services.PlaceStore
	People *services.PersonStore
	Access *services.Access
}

// Export handles GET /api/export/{key}
// @Summary Export volunteers
// @Description Download everyone in the subtree of a place as an xlsx workbook
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param key path string true "Place key"
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /export/{key} [get]
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	place := middleware.PlaceFrom(c)
	if err := canWrite(c, h.Access, place); err != nil {
		return err
	}
	ctx := c.UserContext()

	places, err := h.Places.Subtree(ctx, place)
	if err != nil {
		return err
	}
	people, err := h.People.SubtreePeople(ctx, place)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteVolunteers(&buf, places, people); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", strings.ReplaceAll(place.Key, "/", "-")+".xlsx"))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
