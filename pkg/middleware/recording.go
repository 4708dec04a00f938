package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
)

// RecordingKey is the echo context key holding the authorized *entities.Recording
const RecordingKey = "recording"

// RecordingLookup loads a recording scoped to its owner
type RecordingLookup interface {
	Get(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error)
}

// RequireRecordingOwner middleware: only allow the owner of the :id recording.
// Recordings of other users are reported as not found.
func RequireRecordingOwner(recordings RecordingLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			recordingID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"error":   "invalid_recording_id",
					"message": "recording ID must be a valid UUID",
				})
			}
			userID, ok := c.Get("user_id").(uuid.UUID)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "unauthorized",
					"message": "user not authenticated",
				})
			}
			recording, err := recordings.Get(c.Request().Context(), recordingID, userID)
			if err != nil {
				if errors.Is(err, usecaseErrors.ErrNotFound) {
					return c.JSON(http.StatusNotFound, map[string]interface{}{
						"error":   "recording_not_found",
						"message": "recording not found",
					})
				}
				return err
			}
			c.Set(RecordingKey, recording)
			return next(c)
		}
	}
}

// Recording returns the recording authorized by RequireRecordingOwner
func Recording(c echo.Context) (*entities.Recording, bool) {
	recording, ok := c.Get(RecordingKey).(*entities.Recording)
	return recording, ok && recording != nil
}
