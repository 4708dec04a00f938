package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/errors"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/queue"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	pkgvalidator "github.com/johnquangdev/medical-scribe/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleSuccessWithStatus(logger, c, http.StatusOK, data)
}

// HandleSuccessWithStatus writes a standardized success response with status
func HandleSuccessWithStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain sentinels are mapped to AppErrors; anything unknown is a 500.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	appErr := toAppError(err, c.Param("id"))

	if logger != nil {
		log := logger.Warn
		if appErr.HTTPCode >= http.StatusInternalServerError {
			log = logger.Error
		}
		log("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps domain errors onto their HTTP representation
func toAppError(err error, recordingID string) errors.AppError {
	var appErr errors.AppError
	switch {
	case stdErrors.As(err, &appErr):
		return appErr
	case stdErrors.Is(err, usecaseErrors.ErrNoteNotFound):
		return errors.ErrNoteNotFound(recordingID)
	case stdErrors.Is(err, usecaseErrors.ErrNotFound):
		return errors.ErrRecordingNotFound(recordingID)
	case stdErrors.Is(err, usecaseErrors.ErrConflict):
		return errors.ErrProcessingConflict(recordingID, err)
	case stdErrors.Is(err, usecaseErrors.ErrPrecondition):
		return errors.ErrPreconditionFailed(recordingID, err)
	case stdErrors.Is(err, usecaseErrors.ErrModelMissing):
		return errors.ErrModelMissing(err)
	case stdErrors.Is(err, usecaseErrors.ErrEngineUnavailable):
		return errors.ErrEngineUnavailable(err)
	case stdErrors.Is(err, queue.ErrClosed):
		return errors.ErrQueueFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	default:
		return errors.ErrInternal(err)
	}
}

// bindAndValidate binds the request into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload()
	}
	if err := c.Validate(req); err != nil {
		appErr := errors.ErrInvalidArgument("Request validation failed")
		for field, msg := range pkgvalidator.FieldErrors(err) {
			appErr = appErr.WithDetail(field, msg)
		}
		return appErr
	}
	return nil
}

// recordingIDParam parses the :id path parameter
func recordingIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("Invalid recording id")
	}
	return id, nil
}

// currentUser returns the authenticated user id set by the auth middleware
func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	return id, nil
}
