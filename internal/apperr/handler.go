package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func GlobalErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusBadRequest, map[string]string{"error": ve.Message, "title": "validation error"})
			return
		}

		var ae *APIError
		if errors.As(err, &ae) {
			status := http.StatusBadGateway
			if IsRateLimited(err) {
				status = http.StatusTooManyRequests
			}
			_ = c.JSON(status, map[string]string{"error": ae.Error(), "title": "upstream api error"})
			return
		}

		var he2 *HTTPError
		if errors.As(err, &he2) {
			status := http.StatusBadGateway
			if he2.Status == http.StatusTooManyRequests {
				status = http.StatusTooManyRequests
			}
			_ = c.JSON(status, map[string]string{"error": he2.Error(), "title": "upstream api error"})
			return
		}

		var te *TransportError
		if errors.As(err, &te) {
			_ = c.JSON(http.StatusGatewayTimeout, map[string]string{"error": te.Error(), "title": "upstream unreachable"})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := fmt.Sprintf("%v", he.Message)
			_ = c.JSON(he.Code, map[string]string{"error": msg})
			return
		}

		slog.Error("Unhandled error", "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
