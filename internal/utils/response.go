package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends data as the response body
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// NotFoundResponse sends a 404 response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponseStruct{
		Status:    fiber.StatusNotFound,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
	})
}

// MutationSuccessResponse reports a write and the id of the record it produced, if any
func MutationSuccessResponse(c *fiber.Ctx, status int, id uint, affectedRows int64) error {
	return c.Status(status).JSON(SuccessResponseStruct{
		Message:      "Success",
		Ok:           true,
		ID:           id,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		AffectedRows: affectedRows,
	})
}

// ErrorResponseStruct is the body of every error response (used for Swagger)
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// SuccessResponseStruct is the body of a successful write (used for Swagger)
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	ID           uint   `json:"id,omitempty"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}
