package transport

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type ErrorResp struct {
	Category string `json:"category"`
	Code     string `json:"code,omitempty"`
	Field    string `json:"field,omitempty"`
	Errors   string `json:"errors"`
}

var kindStatus = map[service.Kind]int{
	service.KindValidation:   http.StatusBadRequest,
	service.KindNotFound:     http.StatusNotFound,
	service.KindConflict:     http.StatusBadRequest,
	service.KindState:        http.StatusBadRequest,
	service.KindPermission:   http.StatusForbidden,
	service.KindUnauthorized: http.StatusUnauthorized,
}

// HTTPErrorHandler renders service errors with their category. Anything
// unexpected is logged and hidden behind a 500.
func (s *HTTPServer) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.renderError(err, c)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Errorw("failed to write error response", "error", writeErr)
	}
}

func (s *HTTPServer) renderError(err error, c echo.Context) (int, ErrorResp) {
	if e, ok := service.AsError(err); ok {
		status, known := kindStatus[e.Kind]
		if !known {
			status = http.StatusBadRequest
		}
		return status, ErrorResp{
			Category: string(e.Kind),
			Code:     string(e.Code),
			Field:    e.Field,
			Errors:   e.Message,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if he.Code >= http.StatusInternalServerError {
			s.logger.Errorw("request failed", "path", c.Path(), "error", err)
		}
		return he.Code, ErrorResp{Category: "http", Errors: msg}
	}

	s.logger.Errorw("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return http.StatusInternalServerError, ErrorResp{
		Category: "internal",
		Errors:   http.StatusText(http.StatusInternalServerError),
	}
}
