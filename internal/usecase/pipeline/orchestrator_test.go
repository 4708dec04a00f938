package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/queue"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/internal/usecase/extraction"
	"github.com/johnquangdev/medical-scribe/internal/usecase/soap"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
	"github.com/johnquangdev/medical-scribe/pkg/config"
)

const consultation = "Patient allergique à la pénicilline, température 38,5°C, tension 120/80. " +
	"Il se plaint de toux et de fièvre depuis trois jours."

const wellFormedNote = `Voici la note demandée :
{
  "subjective": "Toux et fièvre depuis trois jours, pas de dyspnée rapportée.",
  "objective": "Température 38.5°C, tension artérielle 120/80 mmHg, auscultation claire.",
  "assessment": "Tableau compatible avec une infection virale des voies respiratoires.",
  "plan": "Repos, hydratation, paracétamol 1g si fièvre, réévaluation sous 72 heures.",
  "chief_complaint": "Toux fébrile",
  "allergies": ["Pénicilline"],
  "medications": ["Paracétamol 1g"],
  "vital_signs": {"temperature": "38.5°C", "blood_pressure": "120/80 mmHg"}
}`

type harness struct {
	recordings  *fakeRecordings
	notes       *fakeNotes
	audio       *fakeAudio
	transcriber *fakeTranscriber
	generator   *fakeGenerator
	engines     *fakeEngines
	queue       *queue.MemoryQueue
	orch        *Orchestrator
}

func newHarness(t *testing.T, recs ...*entities.Recording) *harness {
	t.Helper()

	h := &harness{
		recordings:  newFakeRecordings(recs...),
		notes:       newFakeNotes(),
		audio:       newFakeAudio(),
		transcriber: &fakeTranscriber{text: consultation},
		generator:   &fakeGenerator{text: wellFormedNote, model: "llama2:latest"},
		queue:       queue.NewMemoryQueue(8),
	}
	for _, r := range recs {
		h.audio.objects[r.StoragePath] = true
	}
	h.engines = &fakeEngines{transcriber: h.transcriber, generator: h.generator}
	engines := h.engines

	h.orch = NewOrchestrator(
		h.recordings,
		h.notes,
		h.audio,
		engines,
		extraction.NewExtractor(engines, nil),
		soap.NewComposer(engines, nil, nil),
		nil,
		h.queue,
		config.PipelineConfig{
			LanguageHint: "fr",
			JobTimeout:   time.Minute,
			StaleAfter:   time.Hour,
			ReapInterval: time.Hour,
		},
		nil,
	)
	t.Cleanup(func() {
		if h.orch.IsRunning() {
			_ = h.orch.StopWorkerPool()
		}
		_ = h.queue.Close()
	})
	return h
}

func newRecording(status entities.RecordingStatus) *entities.Recording {
	r := entities.NewRecording(uuid.New(), "recordings/"+uuid.NewString()+".wav", "consult.wav", "audio/wav", 2048)
	r.Status = status
	return r
}

func transcribed(status entities.RecordingStatus) *entities.Recording {
	r := newRecording(status)
	text := consultation
	r.Transcript = &text
	return r
}

func TestStart_RejectsInFlightAndCompleted(t *testing.T) {
	for _, status := range []entities.RecordingStatus{
		entities.RecordingStatusTranscribing,
		entities.RecordingStatusProcessing,
		entities.RecordingStatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			rec := newRecording(status)
			h := newHarness(t, rec)

			_, err := h.orch.Start(context.Background(), rec.ID, Options{})

			assert.ErrorIs(t, err, usecaseErrors.ErrConflict)
			assert.Equal(t, status, h.recordings.get(rec.ID).Status)
			assert.Equal(t, 0, h.queue.Len())
			assert.Equal(t, 0, h.recordings.claims)
		})
	}
}

func TestStart_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Start(context.Background(), uuid.New(), Options{})

	assert.ErrorIs(t, err, usecaseErrors.ErrNotFound)
}

func TestStart_AudioMissing(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	delete(h.audio.objects, rec.StoragePath)

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})

	assert.ErrorIs(t, err, usecaseErrors.ErrPrecondition)
	assert.Equal(t, entities.RecordingStatusUploaded, h.recordings.get(rec.ID).Status)
	assert.Equal(t, 0, h.queue.Len())
}

func TestStart_LostClaimIsConflict(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	h.recordings.loseClaim = true

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})

	assert.ErrorIs(t, err, usecaseErrors.ErrConflict)
	assert.Equal(t, 0, h.queue.Len())
}

func TestStart_QueuesAndClearsPreviousFailure(t *testing.T) {
	rec := newRecording(entities.RecordingStatusFailed)
	cause := "transcription failed: boom"
	rec.ErrorMessage = &cause
	h := newHarness(t, rec)

	got, err := h.orch.Start(context.Background(), rec.ID, Options{Specialty: "Cardiologie"})
	require.NoError(t, err)

	assert.Equal(t, entities.RecordingStatusTranscribing, got.Status)
	assert.Nil(t, got.ErrorMessage)
	stored := h.recordings.get(rec.ID)
	assert.Equal(t, entities.RecordingStatusTranscribing, stored.Status)
	assert.Nil(t, stored.ErrorMessage)

	task, err := h.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, task.RecordingID)
	assert.Equal(t, "Cardiologie", task.Specialty)
}

func TestStart_EnqueueFailureMarksFailed(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	require.NoError(t, h.queue.Close())

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})

	assert.ErrorIs(t, err, queue.ErrClosed)
	stored := h.recordings.get(rec.ID)
	assert.Equal(t, entities.RecordingStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "could not queue processing")
}

func waitForStatus(t *testing.T, h *harness, id uuid.UUID, want entities.RecordingStatus) *entities.Recording {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.recordings.get(id).Status == want
	}, 5*time.Second, 10*time.Millisecond, "recording never reached %s", want)
	return h.recordings.get(id)
}

func TestPipeline_EndToEnd(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	require.NoError(t, h.orch.StartWorkerPool(context.Background(), 2))

	_, err := h.orch.Start(context.Background(), rec.ID, Options{PatientContext: "Homme, 54 ans"})
	require.NoError(t, err)

	stored := waitForStatus(t, h, rec.ID, entities.RecordingStatusCompleted)
	assert.Equal(t, consultation, stored.TranscriptText())
	require.NotNil(t, stored.TranscriptLanguage)
	assert.Equal(t, "fr", *stored.TranscriptLanguage)
	require.NotNil(t, stored.DurationSeconds)
	assert.Equal(t, 4.5, *stored.DurationSeconds)
	assert.Nil(t, stored.ErrorMessage)

	note, err := h.orch.Note(context.Background(), rec.ID)
	require.NoError(t, err)
	for _, field := range entities.NarrativeFields {
		soapNote := note.SOAP()
		assert.NotEmpty(t, soapNote.Section(field), "section %s", field)
	}
	assert.Equal(t, []string{"Pénicilline"}, []string(note.Allergies))
	assert.Equal(t, "llama2:latest", note.ModelUsed)
	require.NotNil(t, note.TokensUsed)
	assert.Equal(t, 200, *note.TokensUsed)
	assert.Equal(t, soap.DefaultSpecialty, note.Specialty)
	assert.Equal(t, entities.ValidationStatusValidated, note.ValidationStatus)
}

func TestPipeline_MalformedOutputStillCompletes(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	h.generator.set("Je ne peux pas produire de JSON aujourd'hui.", "llama2:latest", nil)
	require.NoError(t, h.orch.StartWorkerPool(context.Background(), 1))

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})
	require.NoError(t, err)

	waitForStatus(t, h, rec.ID, entities.RecordingStatusCompleted)
	note, err := h.orch.Note(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ValidationStatusNeedsReview, note.ValidationStatus)
	assert.NotEmpty(t, note.ValidationNotes)
}

func TestPipeline_TranscriptionFailure(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	h.transcriber.err = errors.New("whisper: engine unavailable: connection refused")
	require.NoError(t, h.orch.StartWorkerPool(context.Background(), 1))

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})
	require.NoError(t, err)

	stored := waitForStatus(t, h, rec.ID, entities.RecordingStatusFailed)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "transcription failed")
	assert.False(t, stored.HasTranscript())
	assert.Equal(t, 0, h.notes.count())
}

func TestPipeline_GenerationFailureKeepsTranscript(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	h.generator.set("", "", ai.ErrModelMissing)
	require.NoError(t, h.orch.StartWorkerPool(context.Background(), 1))

	_, err := h.orch.Start(context.Background(), rec.ID, Options{})
	require.NoError(t, err)

	stored := waitForStatus(t, h, rec.ID, entities.RecordingStatusFailed)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "note generation failed")
	assert.Equal(t, consultation, stored.TranscriptText())

	// failed recordings are restartable
	h.generator.set(wellFormedNote, "llama2:latest", nil)
	_, err = h.orch.Start(context.Background(), rec.ID, Options{})
	require.NoError(t, err)
	waitForStatus(t, h, rec.ID, entities.RecordingStatusCompleted)
	assert.Equal(t, 1, h.notes.count())
}

func TestRegenerate_ReplacesNoteInPlace(t *testing.T) {
	rec := transcribed(entities.RecordingStatusCompleted)
	h := newHarness(t, rec)

	first, err := h.orch.Regenerate(context.Background(), rec.ID, Options{Specialty: "Pédiatrie"})
	require.NoError(t, err)
	assert.Equal(t, "Pédiatrie", first.Specialty)

	h.generator.set(wellFormedNote, "mistral:7b", nil)
	second, err := h.orch.Regenerate(context.Background(), rec.ID, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, h.notes.count())
	assert.Equal(t, "mistral:7b", second.ModelUsed)
	assert.Equal(t, "Pédiatrie", second.Specialty)
	assert.Equal(t, entities.RecordingStatusCompleted, h.recordings.get(rec.ID).Status)
}

func TestRegenerate_Guards(t *testing.T) {
	untranscribed := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, untranscribed)

	_, err := h.orch.Regenerate(context.Background(), uuid.New(), Options{})
	assert.ErrorIs(t, err, usecaseErrors.ErrNotFound)

	_, err = h.orch.Regenerate(context.Background(), untranscribed.ID, Options{})
	assert.ErrorIs(t, err, usecaseErrors.ErrPrecondition)
	assert.Equal(t, 0, h.generator.calls)
}

func TestRegenerate_EngineUnavailable(t *testing.T) {
	rec := transcribed(entities.RecordingStatusFailed)
	h := newHarness(t, rec)
	h.generator.set("", "", ai.ErrEngineUnavailable)

	_, err := h.orch.Regenerate(context.Background(), rec.ID, Options{})

	assert.ErrorIs(t, err, usecaseErrors.ErrEngineUnavailable)
	assert.Equal(t, entities.RecordingStatusFailed, h.recordings.get(rec.ID).Status)
}

func TestNote_Missing(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Note(context.Background(), uuid.New())

	assert.ErrorIs(t, err, usecaseErrors.ErrNoteNotFound)
	assert.ErrorIs(t, err, usecaseErrors.ErrNotFound)
}

func TestReapStalled(t *testing.T) {
	stale := newRecording(entities.RecordingStatusProcessing)
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	fresh := newRecording(entities.RecordingStatusTranscribing)
	done := newRecording(entities.RecordingStatusCompleted)
	done.UpdatedAt = time.Now().Add(-2 * time.Hour)
	h := newHarness(t, stale, fresh, done)

	n, err := h.orch.ReapStalled(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	got := h.recordings.get(stale.ID)
	assert.Equal(t, entities.RecordingStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, InterruptedCause, *got.ErrorMessage)
	assert.Equal(t, entities.RecordingStatusTranscribing, h.recordings.get(fresh.ID).Status)
	assert.Equal(t, entities.RecordingStatusCompleted, h.recordings.get(done.ID).Status)
}

func TestProcess_ReclaimedRecordingRunsOnce(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	engine := newBlockingTranscriber(consultation)
	h.engines.transcriber = engine
	ctx := context.Background()

	_, err := h.orch.Start(ctx, rec.ID, Options{})
	require.NoError(t, err)
	h.recordings.age(rec.ID, 2*time.Hour)

	n, err := h.orch.ReapStalled(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = h.orch.Start(ctx, rec.ID, Options{})
	require.NoError(t, err)

	stale, err := h.queue.Dequeue(ctx)
	require.NoError(t, err)
	current, err := h.queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NotEqual(t, stale.AttemptID, current.AttemptID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, task := range []queue.Task{stale, current} {
		wg.Add(1)
		go func(i int, task queue.Task) {
			defer wg.Done()
			errs[i] = h.orch.process(ctx, task)
		}(i, task)
	}
	require.Eventually(t, func() bool { return engine.calls.Load() >= 1 }, 5*time.Second, 5*time.Millisecond)
	close(engine.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), engine.calls.Load())
	stored := h.recordings.get(rec.ID)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	assert.Equal(t, current.AttemptID, stored.AttemptID)
	assert.Equal(t, 1, h.notes.count())
}

func TestRunTask_SupersededAttemptLeavesNewClaimAlone(t *testing.T) {
	rec := newRecording(entities.RecordingStatusUploaded)
	h := newHarness(t, rec)
	engine := newBlockingTranscriber(consultation)
	h.engines.transcriber = engine
	ctx := context.Background()

	_, err := h.orch.Start(ctx, rec.ID, Options{})
	require.NoError(t, err)
	stale, err := h.queue.Dequeue(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.orch.runTask(ctx, 0, stale)
	}()
	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	// the running attempt is reaped and the recording claimed again
	h.recordings.age(rec.ID, 2*time.Hour)
	n, err := h.orch.ReapStalled(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	_, err = h.orch.Start(ctx, rec.ID, Options{})
	require.NoError(t, err)
	current, err := h.queue.Dequeue(ctx)
	require.NoError(t, err)

	close(engine.release)
	<-done

	stored := h.recordings.get(rec.ID)
	assert.Equal(t, entities.RecordingStatusTranscribing, stored.Status)
	assert.Equal(t, current.AttemptID, stored.AttemptID)
	assert.Nil(t, stored.ErrorMessage)
	assert.False(t, stored.HasTranscript())
	assert.Equal(t, 0, h.notes.count())

	// stale writes are rejected at the repository too
	ok, err := h.recordings.UpdateStatus(ctx, rec.ID, stale.AttemptID, entities.RecordingStatusTranscribing, entities.RecordingStatusCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = h.recordings.MarkFailed(ctx, rec.ID, stale.AttemptID, "late failure")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkerPool_Lifecycle(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.orch.StopWorkerPool())
	require.NoError(t, h.orch.StartWorkerPool(context.Background(), 1))
	assert.Error(t, h.orch.StartWorkerPool(context.Background(), 1))
	require.NoError(t, h.orch.StopWorkerPool())
	assert.False(t, h.orch.IsRunning())
}

func TestFailureCause(t *testing.T) {
	assert.Equal(t, "transcription failed: boom",
		failureCause(&stageError{stage: "transcription", err: errors.New("boom")}))
	assert.Equal(t, "processing timed out", failureCause(context.DeadlineExceeded))
	assert.Equal(t, "processing failed: panic recovered: x", failureCause(errors.New("panic recovered: x")))
}
