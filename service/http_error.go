package service

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler register custom error handler.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps creates an error code to http status mapping.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrBadParameter:        http.StatusBadRequest,
		ErrUnauthorized:        http.StatusUnauthorized,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrInternalServerError: http.StatusInternalServerError,
		ErrInvariantViolation:  http.StatusInternalServerError,
		ErrReplicationDelivery: http.StatusBadGateway,
	}
}

// HTTPErrorHandler renders errors returned by handlers and middleware as ErrResponse.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       log.With(logger, "component", "HTTPErrorHandler"),
	}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	if status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	myErr, statusCode := h.resolve(err)

	logger := level.Error(h.logger)
	if statusCode < http.StatusInternalServerError {
		logger = level.Warn(h.logger)
	}
	logger.Log(
		"msg", "HTTP request error",
		"method", c.Request().Method,
		"path", c.Path(),
		"status", statusCode,
		"code", myErr.Code,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, ErrResponse{Error: myErr})
}

// resolve turns err into the error body and status code of the response. A MyError goes through the
// code map; an echo.HTTPError keeps its own status.
func (h *HTTPErrorHandler) resolve(err error) (*MyError, int) {
	if myErr := ToMyError(err); myErr != nil {
		return myErr, h.getStatusCode(myErr.Code)
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return NewMyError(ErrInternalServerError, "an internal server error has occurred", err), http.StatusInternalServerError
	}

	if inner, ok := he.Internal.(*echo.HTTPError); ok {
		he = inner
	}
	code := codeForHTTPStatus(he.Code)
	var requestError *openapi3filter.RequestError
	if errors.As(he.Internal, &requestError) {
		code = ErrBadParameter
	}
	message, ok := he.Message.(string)
	if !ok || message == "" {
		message = http.StatusText(he.Code)
	}
	return NewMyError(code, message, err), he.Code
}

// codeForHTTPStatus maps statuses produced by echo itself (routing, middleware) to error codes.
func codeForHTTPStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return ErrBadParameter
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ErrEntityNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return ErrInternalServerError
	}
}

// ErrResponse from server.
type ErrResponse struct {
	Error *MyError `json:"error,omitempty"`
}
