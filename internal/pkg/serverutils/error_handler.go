package serverutils

import (
	"errors"
	"net/http"

	"care-triage-be/internal/repository/contract"
	"care-triage-be/pkg/careflow/workflow"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a handler error onto an HTTP status.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError
	switch {
	case errors.Is(err, contract.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrCaseBusy):
		return http.StatusConflict
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler is the fiber.Config error handler. Every failure leaves in
// the same envelope as a success.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := StatusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Storage details stay in the logs.
		message = "internal server error"
	}

	body := ErrorResponse(code, message)
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		body.Data = validationErr.Fields
	}
	return ctx.Status(code).JSON(body)
}

// ErrorHandlerMiddleware renders errors returned further down the chain.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}
