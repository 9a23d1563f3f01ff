package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"motodash/internal/apiclient"
	"motodash/internal/closing"
	"motodash/internal/http/middleware"
	"motodash/internal/service"
	"motodash/internal/validation"
	"motodash/internal/whatsapp"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError writes the error envelope. message must be safe to show.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

func writeValidationError(c *fiber.Ctx, verr *validation.Error) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  verr.Fields,
		},
	})
}

var statusCodes = map[int]string{
	fiber.StatusBadRequest:          "BAD_REQUEST",
	fiber.StatusUnauthorized:        "UNAUTHORIZED",
	fiber.StatusForbidden:           "FORBIDDEN",
	fiber.StatusNotFound:            "NOT_FOUND",
	fiber.StatusMethodNotAllowed:    "METHOD_NOT_ALLOWED",
	fiber.StatusConflict:            "CONFLICT",
	fiber.StatusUnprocessableEntity: "UNPROCESSABLE_ENTITY",
	fiber.StatusTooManyRequests:     "TOO_MANY_REQUESTS",
	fiber.StatusServiceUnavailable:  "SERVICE_UNAVAILABLE",
}

// writeAPIError maps a lending API failure. 4xx statuses pass through with
// the upstream message; anything else becomes 502.
func writeAPIError(c *fiber.Ctx, apiErr *apiclient.APIError) error {
	if apiErr.Status >= 400 && apiErr.Status < 500 {
		code, ok := statusCodes[apiErr.Status]
		if !ok {
			code = "UPSTREAM_REJECTED"
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		return writeError(c, apiErr.Status, code, msg)
	}
	return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "lending api unavailable")
}

// ErrorHandler returns the Fiber global error handler. Handlers return
// domain errors as-is and this maps them onto the envelope.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			fe      *fiber.Error
			verr    *validation.Error
			apiErr  *apiclient.APIError
			unknown *closing.UnknownError
		)
		switch {
		case errors.As(err, &verr):
			return writeValidationError(c, verr)
		case errors.As(err, &apiErr):
			if apiErr.Status >= 500 {
				log.WithFields(logrus.Fields{
					"request_id": middleware.RequestIDFrom(c),
					"upstream":   apiErr.Status,
					"error":      apiErr.Message,
				}).Error("lending api failure")
			}
			return writeAPIError(c, apiErr)
		case errors.As(err, &unknown):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(errorPayload{
				RequestID: middleware.RequestIDFrom(c),
				Error: errorEnvelope{
					Code:    "UNKNOWN_INSTALLMENT",
					Message: "some selected installments are not pending closing",
					Fields:  map[string]string{"installmentIds": strings.Join(unknown.IDs, ", ")},
				},
			})
		case errors.Is(err, closing.ErrNoSelection):
			return writeError(c, fiber.StatusBadRequest, "NO_SELECTION", err.Error())
		case errors.Is(err, closing.ErrNegativeAmount):
			return writeError(c, fiber.StatusBadRequest, "NEGATIVE_AMOUNT", err.Error())
		case errors.Is(err, service.ErrNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "report export not found")
		case errors.Is(err, service.ErrUnknownKind), errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrIDRequired):
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
		case errors.Is(err, whatsapp.ErrNotConnected):
			return writeError(c, fiber.StatusConflict, "WHATSAPP_NOT_CONNECTED", err.Error())
		case errors.As(err, &fe):
			code, ok := statusCodes[fe.Code]
			if !ok {
				code = "INTERNAL_ERROR"
			}
			msg := fe.Message
			if fe.Code >= fiber.StatusInternalServerError {
				msg = "internal server error"
			}
			return writeError(c, fe.Code, code, msg)
		}

		log.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"error":      err.Error(),
		}).Error("unhandled error")
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
