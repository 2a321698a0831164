// common.go
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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/middleware"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/types"
	"github.com/localnerve/voternet/internal/utils"
)

// ErrorHandler turns handler errors into the standard error response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"
	var details any

	var (
		ce *types.CustomError
		ve *services.ValidationError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &ce):
		code, message, errorType, details = ce.Code, ce.Message, ce.Type, ce.Details
	case errors.As(err, &ve):
		code, errorType, details = fiber.StatusBadRequest, "validation", ve.Fields
	case errors.Is(err, services.ErrNotFound):
		code, errorType = fiber.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrPermissionDenied):
		code, errorType = fiber.StatusForbidden, "authorization"
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	return c.Status(code).JSON(utils.ErrorResponseStruct{
		Status:    code,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
		Details:   details,
	})
}

// NotFound answers routes that match nothing.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}

// parseRoles extracts role filters from query parameters,
// supporting both multiple 'role' keys and comma-separated values.
func parseRoles(c *fiber.Ctx) ([]models.Role, error) {
	seen := make(map[models.Role]struct{})
	var roles []models.Role

	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		if string(key) != "role" {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			r, err := models.ParseRole(v)
			if err != nil {
				return nil, services.NewValidationError("role", "%s is not a known role", v)
			}
			if _, dup := seen[r]; !dup {
				seen[r] = struct{}{}
				roles = append(roles, r)
			}
		}
	}
	return roles, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 0)
	if err != nil || id == 0 {
		return 0, &types.CustomError{Code: fiber.StatusBadRequest, Message: "Invalid " + name, Type: "input"}
	}
	return uint(id), nil
}

func badInput(err error) error {
	return types.NewError(fiber.StatusBadRequest, "input", "Invalid input: %v", err)
}

// canWrite fails unless the signed in user may change place.
func canWrite(c *fiber.Ctx, access *services.Access, place *models.Place, roles ...models.Role) error {
	ok, err := access.WritableBy(c.UserContext(), place, middleware.Email(c), roles...)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you may not change %s", services.ErrPermissionDenied, place.Key)
	}
	return nil
}

// canView fails unless the signed in user may see place.
func canView(c *fiber.Ctx, access *services.Access, place *models.Place) error {
	ok, err := access.ViewableBy(c.UserContext(), place, middleware.Email(c))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you may not view %s", services.ErrPermissionDenied, place.Key)
	}
	return nil
}
