// Package pipeline drives a recording from uploaded audio to a validated SOAP
// note. Start claims the recording and queues it; workers run the
// transcription and composition stages and persist the status after each one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/queue"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/internal/usecase/extraction"
	"github.com/johnquangdev/medical-scribe/internal/usecase/soap"
	"github.com/johnquangdev/medical-scribe/internal/usecase/validation"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
	"github.com/johnquangdev/medical-scribe/pkg/config"
)

// AudioStore is the part of object storage the pipeline reads from
type AudioStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key string) (string, func(), error)
}

// TranscriberProvider resolves the transcription engine; *ai.Registry implements it
type TranscriberProvider interface {
	Transcriber(ctx context.Context) (ai.TranscriptionEngine, error)
}

// Options carry caller supplied context into note generation
type Options struct {
	PatientContext string
	Specialty      string
}

// Orchestrator owns the recording status state machine
type Orchestrator struct {
	recordings repositories.RecordingRepository
	notes      repositories.MedicalNoteRepository
	audio      AudioStore
	engines    TranscriberProvider
	extractor  *extraction.Extractor
	composer   *soap.Composer
	validator  *validation.Validator
	queue      queue.Queue
	cfg        config.PipelineConfig
	logger     *zap.Logger
	telemetry  *telemetry
	now        func() time.Time

	workerStopChan      chan struct{}
	stopDequeue         context.CancelFunc
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewOrchestrator creates the pipeline orchestrator
func NewOrchestrator(
	recordings repositories.RecordingRepository,
	notes repositories.MedicalNoteRepository,
	audio AudioStore,
	engines TranscriberProvider,
	extractor *extraction.Extractor,
	composer *soap.Composer,
	validator *validation.Validator,
	q queue.Queue,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.NewValidator()
	}
	return &Orchestrator{
		recordings: recordings,
		notes:      notes,
		audio:      audio,
		engines:    engines,
		extractor:  extractor,
		composer:   composer,
		validator:  validator,
		queue:      q,
		cfg:        cfg,
		logger:     logger,
		telemetry:  newTelemetry(),
		now:        time.Now,
	}
}

// Start admits a recording into the pipeline and queues it for a worker.
// Guard failures leave the stored recording untouched.
func (o *Orchestrator) Start(ctx context.Context, recordingID uuid.UUID, opts Options) (*entities.Recording, error) {
	recording, err := o.recordings.FindByID(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		return nil, fmt.Errorf("recording %s: %w", recordingID, usecaseErrors.ErrNotFound)
	}

	if !recording.CanStartProcessing() {
		return nil, fmt.Errorf("recording %s is %s: %w", recordingID, recording.Status, usecaseErrors.ErrConflict)
	}

	exists, err := o.audio.Exists(ctx, recording.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("check audio: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("audio %s is not available: %w", recording.StoragePath, usecaseErrors.ErrPrecondition)
	}

	attemptID := uuid.New()
	claimed, err := o.recordings.ClaimForProcessing(ctx, recordingID, attemptID, entities.StartableStatuses, entities.RecordingStatusTranscribing)
	if err != nil {
		return nil, fmt.Errorf("claim recording: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("recording %s was claimed concurrently: %w", recordingID, usecaseErrors.ErrConflict)
	}
	recording.Status = entities.RecordingStatusTranscribing
	recording.AttemptID = attemptID
	recording.ErrorMessage = nil

	task := queue.Task{
		RecordingID:    recordingID,
		AttemptID:      attemptID,
		PatientContext: opts.PatientContext,
		Specialty:      opts.Specialty,
	}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		cause := fmt.Sprintf("could not queue processing: %v", err)
		if _, markErr := o.recordings.MarkFailed(context.WithoutCancel(ctx), recordingID, attemptID, cause); markErr != nil {
			o.logger.Error("❌ Failed to mark recording as failed",
				zap.String("recording_id", recordingID.String()),
				zap.Error(markErr),
			)
		}
		recording.MarkAsFailed(cause)
		return nil, fmt.Errorf("enqueue recording: %w", err)
	}

	o.logger.Info("🎬 Recording queued for processing",
		zap.String("recording_id", recordingID.String()),
		zap.String("specialty", opts.Specialty),
	)
	return recording, nil
}

// Regenerate rebuilds the note of an already transcribed recording in place.
// It runs synchronously and does not change the recording status.
func (o *Orchestrator) Regenerate(ctx context.Context, recordingID uuid.UUID, opts Options) (*entities.MedicalNote, error) {
	recording, err := o.recordings.FindByID(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		return nil, fmt.Errorf("recording %s: %w", recordingID, usecaseErrors.ErrNotFound)
	}
	if !recording.HasTranscript() {
		return nil, fmt.Errorf("recording %s has no transcript: %w", recordingID, usecaseErrors.ErrPrecondition)
	}

	var note *entities.MedicalNote
	err = o.telemetry.stage(ctx, StageCompose, recordingID, func(ctx context.Context) error {
		var err error
		note, err = o.compose(ctx, recording, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("♻️ Medical note regenerated",
		zap.String("recording_id", recordingID.String()),
		zap.String("note_id", note.ID.String()),
		zap.String("validation_status", string(note.ValidationStatus)),
	)
	return note, nil
}

// Note returns the stored note of a recording
func (o *Orchestrator) Note(ctx context.Context, recordingID uuid.UUID) (*entities.MedicalNote, error) {
	note, err := o.notes.FindByRecordingID(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	if note == nil {
		return nil, fmt.Errorf("recording %s: %w", recordingID, usecaseErrors.ErrNoteNotFound)
	}
	return note, nil
}

// errSuperseded stops a task whose claim was taken over by a newer attempt
var errSuperseded = errors.New("processing attempt superseded")

// stageError tags a failure with the stage it happened in
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return e.stage + " failed: " + e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}

// process runs the background stages for a claimed recording
func (o *Orchestrator) process(ctx context.Context, task queue.Task) error {
	recording, err := o.recordings.FindByID(ctx, task.RecordingID)
	if err != nil {
		return fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		o.logger.Warn("⏭️ Recording vanished before processing",
			zap.String("recording_id", task.RecordingID.String()),
		)
		return nil
	}
	if recording.Status != entities.RecordingStatusTranscribing || !recording.OwnedBy(task.AttemptID) {
		o.logger.Warn("⏭️ Recording no longer claimed by this task, skipping",
			zap.String("recording_id", recording.ID.String()),
			zap.String("status", string(recording.Status)),
			zap.String("attempt_id", task.AttemptID.String()),
		)
		return nil
	}

	if err := o.telemetry.stage(ctx, StageTranscribe, recording.ID, func(ctx context.Context) error {
		return o.transcribe(ctx, recording)
	}); err != nil {
		return &stageError{stage: "transcription", err: err}
	}

	advanced, err := o.recordings.UpdateStatus(ctx, recording.ID, recording.AttemptID,
		entities.RecordingStatusTranscribed, entities.RecordingStatusProcessing)
	if err != nil {
		return &stageError{stage: "note generation", err: fmt.Errorf("mark processing: %w", err)}
	}
	if !advanced {
		return errSuperseded
	}
	recording.MarkAsProcessing()

	opts := Options{PatientContext: task.PatientContext, Specialty: task.Specialty}
	if err := o.telemetry.stage(ctx, StageCompose, recording.ID, func(ctx context.Context) error {
		_, err := o.compose(ctx, recording, opts)
		return err
	}); err != nil {
		return &stageError{stage: "note generation", err: err}
	}

	advanced, err = o.recordings.UpdateStatus(ctx, recording.ID, recording.AttemptID,
		entities.RecordingStatusProcessing, entities.RecordingStatusCompleted)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !advanced {
		return errSuperseded
	}
	recording.MarkAsCompleted()
	return nil
}

// transcribe fetches the audio, runs the engine and stores the transcript
// together with the transcribed status
func (o *Orchestrator) transcribe(ctx context.Context, recording *entities.Recording) error {
	engine, err := o.engines.Transcriber(ctx)
	if err != nil {
		return fmt.Errorf("resolve transcription engine: %w", err)
	}

	path, cleanup, err := o.audio.Download(ctx, recording.StoragePath)
	if err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	defer cleanup()

	started := o.now()
	transcript, err := engine.Transcribe(ctx, ai.TranscribeRequest{
		AudioPath: path,
		Language:  o.cfg.LanguageHint,
		Task:      ai.TaskTranscribe,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return errors.New("engine returned an empty transcript")
	}

	result := toTranscriptionResult(transcript)
	recording.ApplyTranscription(result)
	saved, err := o.recordings.SaveTranscript(ctx, recording)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if !saved {
		return errSuperseded
	}

	o.logger.Info("📝 Recording transcribed",
		zap.String("recording_id", recording.ID.String()),
		zap.String("language", result.Language),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("audio_seconds", result.DurationSeconds),
		zap.Duration("elapsed", o.now().Sub(started)),
	)
	return nil
}

// compose extracts entities, generates the note, upserts it and stores the
// validation outcome. It is shared by the worker and Regenerate.
func (o *Orchestrator) compose(ctx context.Context, recording *entities.Recording, opts Options) (*entities.MedicalNote, error) {
	existing, err := o.notes.FindByRecordingID(ctx, recording.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing note: %w", err)
	}
	specialty := opts.Specialty
	if specialty == "" && existing != nil {
		specialty = existing.Specialty
	}

	transcript := recording.TranscriptText()
	ents := o.extractor.Extract(ctx, transcript)

	composition, err := o.composer.Compose(ctx, soap.ComposeInput{
		Transcript:     transcript,
		Entities:       ents,
		PatientContext: opts.PatientContext,
		Specialty:      specialty,
	})
	if err != nil {
		return nil, err
	}

	note := existing
	if note == nil {
		note = entities.NewMedicalNote(recording.ID)
	}
	note.ApplyComposition(composition.Note, composition.Meta)
	if err := o.notes.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	result := o.validator.Validate(composition.Note, ents)
	note.ApplyValidation(result)
	if err := o.notes.UpdateValidation(ctx, note); err != nil {
		return nil, fmt.Errorf("save validation: %w", err)
	}

	o.logger.Info("🩺 Medical note composed",
		zap.String("recording_id", recording.ID.String()),
		zap.String("note_id", note.ID.String()),
		zap.Int("entities", ents.Count()),
		zap.String("parse_method", string(composition.Method)),
		zap.String("validation_status", string(note.ValidationStatus)),
		zap.Int("validation_errors", len(result.Errors)),
		zap.Int("validation_warnings", len(result.Warnings)),
	)
	return note, nil
}

func toTranscriptionResult(t *ai.Transcript) *entities.TranscriptionResult {
	result := &entities.TranscriptionResult{
		Text:            strings.TrimSpace(t.Text),
		Language:        t.Language,
		DurationSeconds: t.DurationSeconds,
	}
	for _, s := range t.Segments {
		result.Segments = append(result.Segments, entities.Segment{
			Start:   s.Start,
			End:     s.End,
			Text:    s.Text,
			Speaker: s.Speaker,
		})
	}
	if result.DurationSeconds == 0 {
		result.DurationSeconds = entities.SegmentsDuration(result.Segments)
	}
	return result
}
