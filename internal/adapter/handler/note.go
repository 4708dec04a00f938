package handler

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/errors"
	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/note"
	"github.com/johnquangdev/medical-scribe/internal/adapter/presenter"
	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/internal/usecase/letter"
	"github.com/johnquangdev/medical-scribe/internal/usecase/pipeline"
	recordingUsecase "github.com/johnquangdev/medical-scribe/internal/usecase/recording"
)

// LetterService generates referral letters from stored notes
type LetterService interface {
	Generate(ctx context.Context, recordingID uuid.UUID, req letter.Request) (*entities.GeneratedLetter, error)
}

// Note handles medical note and letter requests
type Note struct {
	recordings recordingUsecase.Service
	pipeline   PipelineService
	letters    LetterService
	logger     *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(recordings recordingUsecase.Service, pipeline PipelineService, letters LetterService, logger *zap.Logger) *Note {
	return &Note{
		recordings: recordings,
		pipeline:   pipeline,
		letters:    letters,
		logger:     logger,
	}
}

// GetNote handles GET /recordings/:id/note
// @Summary      Get the medical note
// @Description  Returns the SOAP note, extracted entities and validation outcome of a processed recording
// @Tags         Notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recording ID"
// @Success      200  {object}  common.SuccessResponse{data=note.MedicalNoteResponse}
// @Failure      404  {object}  common.ErrorResponse  "Recording or note not found"
// @Router       /recordings/{id}/note [get]
func (h *Note) GetNote(c echo.Context) error {
	rec, err := ownedRecording(c, h.recordings)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	n, err := h.pipeline.Note(c.Request().Context(), rec.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMedicalNoteResponse(n))
}

// Regenerate handles POST /recordings/:id/regenerate
// @Summary      Regenerate the medical note
// @Description  Re-runs extraction and note generation on the stored transcript. The existing note is replaced in place.
// @Tags         Notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true   "Recording ID"
// @Param        request  body      note.RegenerateNoteRequest  false  "Optional generation context"
// @Success      200      {object}  common.SuccessResponse{data=note.MedicalNoteResponse}
// @Failure      404      {object}  common.ErrorResponse
// @Failure      412      {object}  common.ErrorResponse  "No transcript"
// @Failure      503      {object}  common.ErrorResponse  "Generation engine unavailable"
// @Router       /recordings/{id}/regenerate [post]
func (h *Note) Regenerate(c echo.Context) error {
	rec, err := ownedRecording(c, h.recordings)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req note.RegenerateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	n, err := h.pipeline.Regenerate(c.Request().Context(), rec.ID, pipeline.Options{
		PatientContext: req.PatientContext,
		Specialty:      strings.TrimSpace(req.Specialty),
	})
	if err != nil {
		return HandleError(h.logger, c, processingError(err))
	}
	return HandleSuccess(h.logger, c, presenter.ToMedicalNoteResponse(n))
}

// GenerateLetter handles POST /recordings/:id/letter
// @Summary      Generate a referral letter
// @Description  Writes a letter to a specialist from the recording's SOAP note. Results are cached until the note changes.
// @Tags         Notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true   "Recording ID"
// @Param        request  body      note.GenerateLetterRequest  false  "Letter parameters"
// @Success      200      {object}  common.SuccessResponse{data=note.LetterResponse}
// @Failure      404      {object}  common.ErrorResponse  "Recording or note not found"
// @Failure      503      {object}  common.ErrorResponse  "Generation engine unavailable"
// @Router       /recordings/{id}/letter [post]
func (h *Note) GenerateLetter(c echo.Context) error {
	rec, err := ownedRecording(c, h.recordings)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req note.GenerateLetterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	l, err := h.letters.Generate(c.Request().Context(), rec.ID, letter.Request{
		Specialty:   strings.TrimSpace(req.Specialty),
		PatientName: strings.TrimSpace(req.PatientName),
		DoctorName:  strings.TrimSpace(req.DoctorName),
		LetterType:  strings.TrimSpace(req.LetterType),
	})
	if err != nil {
		if isDomainError(err) {
			return HandleError(h.logger, c, err)
		}
		return HandleError(h.logger, c, errors.ErrLetterFailed(err))
	}
	return HandleSuccess(h.logger, c, presenter.ToLetterResponse(l))
}

// processingError keeps domain errors as they are and reports the rest as a generation failure
func processingError(err error) error {
	if isDomainError(err) {
		return err
	}
	return errors.ErrProcessingFailed(err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		usecaseErrors.ErrNotFound,
		usecaseErrors.ErrConflict,
		usecaseErrors.ErrPrecondition,
		usecaseErrors.ErrEngineUnavailable,
		usecaseErrors.ErrModelMissing,
		usecaseErrors.ErrInvalidInput,
	} {
		if stdErrors.Is(err, target) {
			return true
		}
	}
	return false
}
