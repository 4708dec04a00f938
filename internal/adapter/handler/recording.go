package handler

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/errors"
	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/recording"
	"github.com/johnquangdev/medical-scribe/internal/adapter/presenter"
	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/internal/usecase/pipeline"
	recordingUsecase "github.com/johnquangdev/medical-scribe/internal/usecase/recording"
	scope "github.com/johnquangdev/medical-scribe/pkg/middleware"
)

// PipelineService is the part of the orchestrator the HTTP layer drives
type PipelineService interface {
	Start(ctx context.Context, recordingID uuid.UUID, opts pipeline.Options) (*entities.Recording, error)
	Regenerate(ctx context.Context, recordingID uuid.UUID, opts pipeline.Options) (*entities.MedicalNote, error)
	Note(ctx context.Context, recordingID uuid.UUID) (*entities.MedicalNote, error)
}

// Recording handles recording-related HTTP requests
type Recording struct {
	recordings recordingUsecase.Service
	pipeline   PipelineService
	maxBytes   int64
	logger     *zap.Logger
}

// NewRecordingHandler creates a new recording handler
func NewRecordingHandler(recordings recordingUsecase.Service, pipeline PipelineService, maxBytes int64, logger *zap.Logger) *Recording {
	return &Recording{
		recordings: recordings,
		pipeline:   pipeline,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Upload handles POST /recordings
// @Summary      Upload a consultation recording
// @Description  Stores an audio file (.wav .mp3 .m4a .ogg .flac .webm) and creates a recording in the uploaded state
// @Tags         Recordings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Audio file"
// @Success      201   {object}  common.SuccessResponse{data=recording.RecordingResponse}
// @Failure      400   {object}  common.ErrorResponse  "Missing file or unsupported format"
// @Failure      401   {object}  common.ErrorResponse
// @Failure      413   {object}  common.ErrorResponse  "File too large"
// @Router       /recordings [post]
func (h *Recording) Upload(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Multipart field 'file' is required"))
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return HandleError(h.logger, c, errors.ErrFileTooLarge(h.maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrRecordingUploadFailed(err))
	}
	defer f.Close()

	rec, err := h.recordings.Upload(c.Request().Context(), recordingUsecase.UploadInput{
		UserID:      userID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return HandleError(h.logger, c, uploadError(err, fh.Filename, h.maxBytes))
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusCreated, presenter.ToRecordingResponse(rec))
}

func uploadError(err error, filename string, maxBytes int64) error {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrUnsupportedAudio):
		return errors.ErrUnsupportedAudio(strings.ToLower(filepath.Ext(filename)), strings.Join(recordingUsecase.AllowedExtensions, ", "))
	case stdErrors.Is(err, usecaseErrors.ErrFileTooLarge):
		return errors.ErrFileTooLarge(maxBytes)
	case stdErrors.Is(err, usecaseErrors.ErrEmptyFile):
		return errors.ErrInvalidArgument("Uploaded file is empty")
	default:
		return errors.ErrRecordingUploadFailed(err)
	}
}

// List handles GET /recordings
// @Summary      List recordings
// @Description  Lists the authenticated user's recordings, newest first
// @Tags         Recordings
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Filter by status"
// @Param        page       query     int     false  "Page number"  default(1)
// @Param        page_size  query     int     false  "Page size"    default(20)
// @Success      200        {object}  common.SuccessResponse{data=recording.RecordingListResponse}
// @Failure      400        {object}  common.ErrorResponse
// @Failure      401        {object}  common.ErrorResponse
// @Router       /recordings [get]
func (h *Recording) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := recording.ListRecordingsRequest{Page: 1, PageSize: 20}
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	filters := repositories.RecordingFilters{Page: req.Page, Limit: req.PageSize}
	if req.Status != "" {
		status := entities.RecordingStatus(req.Status)
		filters.Status = &status
	}

	recs, total, err := h.recordings.List(c.Request().Context(), userID, filters)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list recordings", err))
	}

	return HandleSuccess(h.logger, c, presenter.ToRecordingListResponse(recs, total, req.Page, req.PageSize))
}

// Get handles GET /recordings/:id
// @Summary      Get a recording
// @Description  Returns the recording with its status, error message and transcript when available
// @Tags         Recordings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recording ID"
// @Success      200  {object}  common.SuccessResponse{data=recording.RecordingResponse}
// @Failure      404  {object}  common.ErrorResponse
// @Router       /recordings/{id} [get]
func (h *Recording) Get(c echo.Context) error {
	rec, err := h.owned(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordingResponse(rec))
}

// Delete handles DELETE /recordings/:id
// @Summary      Delete a recording
// @Description  Deletes the recording, its note and its audio file
// @Tags         Recordings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recording ID"
// @Success      200  {object}  common.SuccessResponse
// @Failure      404  {object}  common.ErrorResponse
// @Failure      409  {object}  common.ErrorResponse  "Recording is being processed"
// @Router       /recordings/{id} [delete]
func (h *Recording) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	id, err := recordingIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.recordings.Delete(c.Request().Context(), id, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": id.String()})
}

// Process handles POST /recordings/:id/process
// @Summary      Start processing
// @Description  Queues transcription and note generation. Allowed from uploaded or failed.
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true   "Recording ID"
// @Param        request  body      recording.ProcessRecordingRequest  false  "Optional generation context"
// @Success      202      {object}  common.SuccessResponse{data=recording.RecordingResponse}
// @Failure      404      {object}  common.ErrorResponse
// @Failure      409      {object}  common.ErrorResponse  "Already processing or completed"
// @Failure      412      {object}  common.ErrorResponse  "Audio file missing"
// @Router       /recordings/{id}/process [post]
func (h *Recording) Process(c echo.Context) error {
	rec, err := h.owned(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req recording.ProcessRecordingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	started, err := h.pipeline.Start(c.Request().Context(), rec.ID, pipeline.Options{
		PatientContext: req.PatientContext,
		Specialty:      strings.TrimSpace(req.Specialty),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToRecordingResponse(started))
}

// owned loads the :id recording if it belongs to the caller
func (h *Recording) owned(c echo.Context) (*entities.Recording, error) {
	return ownedRecording(c, h.recordings)
}

func ownedRecording(c echo.Context, recordings recordingUsecase.Service) (*entities.Recording, error) {
	if rec, ok := scope.Recording(c); ok {
		return rec, nil
	}
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := recordingIDParam(c)
	if err != nil {
		return nil, err
	}
	rec, err := recordings.Get(c.Request().Context(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("authorize recording: %w", err)
	}
	return rec, nil
}
