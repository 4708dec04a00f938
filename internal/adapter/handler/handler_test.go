package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/internal/usecase/letter"
	"github.com/johnquangdev/medical-scribe/internal/usecase/pipeline"
	recordingUsecase "github.com/johnquangdev/medical-scribe/internal/usecase/recording"
	"github.com/johnquangdev/medical-scribe/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/medical-scribe/pkg/validator"
)

type stubRecordings struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*entities.Recording
	uploadErr error
	uploaded  []recordingUsecase.UploadInput
	filters   repositories.RecordingFilters
}

func (s *stubRecordings) Upload(ctx context.Context, in recordingUsecase.UploadInput) (*entities.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploaded = append(s.uploaded, in)
	rec := entities.NewRecording(in.UserID, "recordings/"+in.Filename, in.Filename, in.ContentType, in.Size)
	s.items[rec.ID] = rec
	return rec, nil
}

func (s *stubRecordings) Get(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	if !ok || rec.UserID != userID {
		return nil, fmt.Errorf("recording %s: %w", id, usecaseErrors.ErrNotFound)
	}
	return rec, nil
}

func (s *stubRecordings) List(ctx context.Context, userID uuid.UUID, filters repositories.RecordingFilters) ([]*entities.Recording, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	var out []*entities.Recording
	for _, rec := range s.items {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubRecordings) Delete(ctx context.Context, id, userID uuid.UUID) error {
	rec, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if rec.Status == entities.RecordingStatusProcessing {
		return fmt.Errorf("recording %s is processing: %w", id, usecaseErrors.ErrConflict)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type stubPipeline struct {
	startErr  error
	regenErr  error
	note      *entities.MedicalNote
	lastOpts  pipeline.Options
	startedID uuid.UUID
}

func (s *stubPipeline) Start(ctx context.Context, id uuid.UUID, opts pipeline.Options) (*entities.Recording, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.startedID, s.lastOpts = id, opts
	return &entities.Recording{ID: id, Status: entities.RecordingStatusTranscribing}, nil
}

func (s *stubPipeline) Regenerate(ctx context.Context, id uuid.UUID, opts pipeline.Options) (*entities.MedicalNote, error) {
	if s.regenErr != nil {
		return nil, s.regenErr
	}
	s.lastOpts = opts
	return s.note, nil
}

func (s *stubPipeline) Note(ctx context.Context, id uuid.UUID) (*entities.MedicalNote, error) {
	if s.note == nil {
		return nil, fmt.Errorf("recording %s: %w", id, usecaseErrors.ErrNoteNotFound)
	}
	return s.note, nil
}

type stubLetters struct {
	err  error
	last letter.Request
}

func (s *stubLetters) Generate(ctx context.Context, id uuid.UUID, req letter.Request) (*entities.GeneratedLetter, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.last = req
	return &entities.GeneratedLetter{Body: "Cher confrère,", Specialty: req.Specialty, GeneratedAt: time.Now()}, nil
}

type env struct {
	e          *echo.Echo
	recordings *stubRecordings
	pipeline   *stubPipeline
	letters    *stubLetters
	user       uuid.UUID
	token      string
	checkErr   error
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tokens := jwt.NewManager("test-secret", time.Hour, "medical-scribe")
	user := uuid.New()
	token, err := tokens.GenerateAccessToken(user, "dr@example.com", "doctor")
	require.NoError(t, err)

	ev := &env{
		e:          echo.New(),
		recordings: &stubRecordings{items: map[uuid.UUID]*entities.Recording{}},
		pipeline:   &stubPipeline{},
		letters:    &stubLetters{},
		user:       user,
		token:      token,
	}
	ev.e.Validator = pkgvalidator.New()

	logger := zap.NewNop()
	health := NewHealthHandler("test", map[string]HealthCheck{
		"database": func(ctx context.Context) error { return ev.checkErr },
	}, nil, nil, logger)

	NewRouter(
		tokens,
		ev.recordings,
		NewRecordingHandler(ev.recordings, ev.pipeline, 16, logger),
		NewNoteHandler(ev.recordings, ev.pipeline, ev.letters, logger),
		health,
		false,
	).Setup(ev.e)
	return ev
}

func (ev *env) seed(status entities.RecordingStatus) *entities.Recording {
	rec := entities.NewRecording(ev.user, "recordings/a.wav", "a.wav", "audio/wav", 8)
	rec.Status = status
	ev.recordings.items[rec.ID] = rec
	return rec
}

func (ev *env) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+ev.token)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	return rec
}

func (ev *env) doJSON(method, path, body string) *httptest.ResponseRecorder {
	return ev.do(method, path, strings.NewReader(body), echo.MIMEApplicationJSON)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRequired(t *testing.T) {
	ev := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/recordings", nil)
	rec := httptest.NewRecorder()

	ev.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload(t *testing.T) {
	ev := newEnv(t)
	body, ct := multipartBody(t, "file", "visit.wav", []byte("RIFFdata"))

	rec := ev.do(http.MethodPost, "/v1/recordings", body, ct)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "uploaded", data["status"])
	assert.Equal(t, "visit.wav", data["original_filename"])
	require.Len(t, ev.recordings.uploaded, 1)
	assert.Equal(t, ev.user, ev.recordings.uploaded[0].UserID)
}

func TestUpload_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		ev := newEnv(t)
		body, ct := multipartBody(t, "audio", "visit.wav", []byte("RIFF"))
		rec := ev.do(http.MethodPost, "/v1/recordings", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		ev := newEnv(t)
		body, ct := multipartBody(t, "file", "visit.wav", bytes.Repeat([]byte("x"), 32))
		rec := ev.do(http.MethodPost, "/v1/recordings", body, ct)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "FILE_TOO_LARGE", decode(t, rec)["code"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		ev := newEnv(t)
		ev.recordings.uploadErr = fmt.Errorf("%q: %w", ".txt", usecaseErrors.ErrUnsupportedAudio)
		body, ct := multipartBody(t, "file", "notes.TXT", []byte("hello"))
		rec := ev.do(http.MethodPost, "/v1/recordings", body, ct)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode(t, rec)
		assert.Equal(t, "UNSUPPORTED_AUDIO", resp["code"])
		assert.Equal(t, ".txt", resp["details"].(map[string]interface{})["extension"])
	})
}

func TestList(t *testing.T) {
	ev := newEnv(t)
	ev.seed(entities.RecordingStatusCompleted)
	ev.seed(entities.RecordingStatusUploaded)

	rec := ev.do(http.MethodGet, "/v1/recordings?status=completed&page=2&page_size=5", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ev.recordings.filters.Status)
	assert.Equal(t, entities.RecordingStatusCompleted, *ev.recordings.filters.Status)
	assert.Equal(t, 2, ev.recordings.filters.Page)
	assert.Equal(t, 5, ev.recordings.filters.Limit)

	rec = ev.do(http.MethodGet, "/v1/recordings?status=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGet_OtherUsersRecordingIsNotFound(t *testing.T) {
	ev := newEnv(t)
	foreign := entities.NewRecording(uuid.New(), "recordings/b.wav", "b.wav", "audio/wav", 8)
	ev.recordings.items[foreign.ID] = foreign

	rec := ev.do(http.MethodGet, "/v1/recordings/"+foreign.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ev.do(http.MethodGet, "/v1/recordings/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	own := ev.seed(entities.RecordingStatusUploaded)
	rec = ev.do(http.MethodGet, "/v1/recordings/"+own.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDelete(t *testing.T) {
	ev := newEnv(t)
	busy := ev.seed(entities.RecordingStatusProcessing)
	done := ev.seed(entities.RecordingStatusCompleted)

	rec := ev.do(http.MethodDelete, "/v1/recordings/"+busy.ID.String(), nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ev.do(http.MethodDelete, "/v1/recordings/"+done.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, ev.recordings.items, done.ID)
}

func TestProcess(t *testing.T) {
	ev := newEnv(t)
	r := ev.seed(entities.RecordingStatusUploaded)

	rec := ev.doJSON(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/process",
		`{"patient_context":"diabétique","specialty":" cardiologie "}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, r.ID, ev.pipeline.startedID)
	assert.Equal(t, "cardiologie", ev.pipeline.lastOpts.Specialty)
	assert.Equal(t, "diabétique", ev.pipeline.lastOpts.PatientContext)
	assert.Equal(t, "transcribing", decode(t, rec)["data"].(map[string]interface{})["status"])
}

func TestProcess_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", fmt.Errorf("busy: %w", usecaseErrors.ErrConflict), http.StatusConflict, "PROCESSING_CONFLICT"},
		{"audio missing", fmt.Errorf("gone: %w", usecaseErrors.ErrPrecondition), http.StatusPreconditionFailed, "PRECONDITION_FAILED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := newEnv(t)
			r := ev.seed(entities.RecordingStatusUploaded)
			ev.pipeline.startErr = tc.err

			rec := ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/process", nil, "")

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode(t, rec)["code"])
		})
	}
}

func TestGetNote(t *testing.T) {
	ev := newEnv(t)
	r := ev.seed(entities.RecordingStatusCompleted)

	rec := ev.do(http.MethodGet, "/v1/recordings/"+r.ID.String()+"/note", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOTE_NOT_FOUND", decode(t, rec)["code"])

	note := entities.NewMedicalNote(r.ID)
	note.Subjective = "Douleur thoracique"
	note.ValidationStatus = entities.ValidationStatusValidated
	ev.pipeline.note = note

	rec = ev.do(http.MethodGet, "/v1/recordings/"+r.ID.String()+"/note", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Douleur thoracique", data["subjective"])
	assert.Equal(t, "validated", data["validation_status"])
}

func TestRegenerate(t *testing.T) {
	ev := newEnv(t)
	r := ev.seed(entities.RecordingStatusCompleted)
	ev.pipeline.note = entities.NewMedicalNote(r.ID)

	rec := ev.doJSON(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/regenerate", `{"specialty":"pédiatrie"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pédiatrie", ev.pipeline.lastOpts.Specialty)

	ev.pipeline.regenErr = fmt.Errorf("no transcript: %w", usecaseErrors.ErrPrecondition)
	rec = ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/regenerate", nil, "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	ev.pipeline.regenErr = fmt.Errorf("generate: %w", usecaseErrors.ErrEngineUnavailable)
	rec = ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/regenerate", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ev.pipeline.regenErr = errors.New("parse failure")
	rec = ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/regenerate", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "PROCESSING_FAILED", decode(t, rec)["code"])
}

func TestRegenerate_RejectsBadSpecialty(t *testing.T) {
	ev := newEnv(t)
	r := ev.seed(entities.RecordingStatusCompleted)

	rec := ev.doJSON(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/regenerate", `{"specialty":"<script>"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "specialty")
}

func TestGenerateLetter(t *testing.T) {
	ev := newEnv(t)
	r := ev.seed(entities.RecordingStatusCompleted)

	rec := ev.doJSON(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/letter",
		`{"specialty":"cardiologie","patient_name":" M. Dupont ","doctor_name":"Dr Martin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "M. Dupont", ev.letters.last.PatientName)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Cher confrère,", data["letter"])

	ev.letters.err = fmt.Errorf("recording: %w", usecaseErrors.ErrNoteNotFound)
	rec = ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/letter", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ev.letters.err = errors.New("empty letter")
	rec = ev.do(http.MethodPost, "/v1/recordings/"+r.ID.String()+"/letter", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LETTER_FAILED", decode(t, rec)["code"])
}

func TestHealth(t *testing.T) {
	ev := newEnv(t)

	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	ev.checkErr = errors.New("connection refused")
	rec = httptest.NewRecorder()
	ev.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "down", body["checks"].(map[string]interface{})["database"])
}
