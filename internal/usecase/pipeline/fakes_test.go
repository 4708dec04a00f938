package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

type fakeRecordings struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*entities.Recording
	loseClaim bool
	claims    int
}

var _ repositories.RecordingRepository = (*fakeRecordings)(nil)

func newFakeRecordings(recs ...*entities.Recording) *fakeRecordings {
	f := &fakeRecordings{items: map[uuid.UUID]*entities.Recording{}}
	for _, r := range recs {
		f.items[r.ID] = r
	}
	return f
}

func (f *fakeRecordings) get(id uuid.UUID) *entities.Recording {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (f *fakeRecordings) Create(ctx context.Context, r *entities.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.items[r.ID] = &cp
	return nil
}

func (f *fakeRecordings) FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	return f.get(id), nil
}

func (f *fakeRecordings) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error) {
	r := f.get(id)
	if r == nil || r.UserID != userID {
		return nil, nil
	}
	return r, nil
}

func (f *fakeRecordings) ListByUser(ctx context.Context, userID uuid.UUID, filters repositories.RecordingFilters) ([]*entities.Recording, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Recording
	for _, r := range f.items {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (f *fakeRecordings) ClaimForProcessing(ctx context.Context, id, attemptID uuid.UUID, from []entities.RecordingStatus, to entities.RecordingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if f.loseClaim {
		return false, nil
	}
	r, ok := f.items[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if r.Status == s {
			r.Status = to
			r.AttemptID = attemptID
			r.ErrorMessage = nil
			r.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// owned returns the stored recording if attemptID holds it in one of statuses
func (f *fakeRecordings) owned(id, attemptID uuid.UUID, statuses ...entities.RecordingStatus) *entities.Recording {
	r, ok := f.items[id]
	if !ok || r.AttemptID != attemptID {
		return nil
	}
	for _, s := range statuses {
		if r.Status == s {
			return r
		}
	}
	return nil
}

func (f *fakeRecordings) UpdateStatus(ctx context.Context, id, attemptID uuid.UUID, from, to entities.RecordingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.owned(id, attemptID, from)
	if r == nil {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRecordings) SaveTranscript(ctx context.Context, rec *entities.Recording) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.owned(rec.ID, rec.AttemptID, entities.RecordingStatusTranscribing)
	if r == nil {
		return false, nil
	}
	r.Transcript = rec.Transcript
	r.TranscriptLanguage = rec.TranscriptLanguage
	r.DurationSeconds = rec.DurationSeconds
	r.Segments = rec.Segments
	r.Status = rec.Status
	r.ErrorMessage = nil
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRecordings) MarkFailed(ctx context.Context, id, attemptID uuid.UUID, cause string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.owned(id, attemptID, entities.InFlightStatuses...)
	if r == nil {
		return false, nil
	}
	r.MarkAsFailed(cause)
	r.UpdatedAt = time.Now()
	return true, nil
}

// age moves the last update of a recording back by d
func (f *fakeRecordings) age(id uuid.UUID, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id].UpdatedAt = f.items[id].UpdatedAt.Add(-d)
}

func (f *fakeRecordings) FindStalled(ctx context.Context, statuses []entities.RecordingStatus, before time.Time) ([]*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Recording
	for _, r := range f.items {
		for _, s := range statuses {
			if r.Status == s && r.UpdatedAt.Before(before) {
				cp := *r
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeRecordings) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeNotes struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*entities.MedicalNote
	upserts int
}

var _ repositories.MedicalNoteRepository = (*fakeNotes)(nil)

func newFakeNotes() *fakeNotes {
	return &fakeNotes{items: map[uuid.UUID]*entities.MedicalNote{}}
}

func (f *fakeNotes) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeNotes) FindByRecordingID(ctx context.Context, recordingID uuid.UUID) (*entities.MedicalNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[recordingID]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotes) Upsert(ctx context.Context, note *entities.MedicalNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if existing, ok := f.items[note.RecordingID]; ok {
		note.ID = existing.ID
		note.CreatedAt = existing.CreatedAt
	}
	note.UpdatedAt = time.Now()
	cp := *note
	f.items[note.RecordingID] = &cp
	return nil
}

func (f *fakeNotes) UpdateValidation(ctx context.Context, note *entities.MedicalNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[note.RecordingID]
	if !ok {
		return errors.New("no such note")
	}
	n.ValidationStatus = note.ValidationStatus
	n.ValidationNotes = note.ValidationNotes
	return nil
}

type fakeAudio struct {
	mu      sync.Mutex
	objects map[string]bool
}

func newFakeAudio(keys ...string) *fakeAudio {
	f := &fakeAudio{objects: map[string]bool{}}
	for _, k := range keys {
		f.objects[k] = true
	}
	return f
}

func (f *fakeAudio) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key], nil
}

func (f *fakeAudio) Download(ctx context.Context, key string) (string, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.objects[key] {
		return "", nil, errors.New("object not found")
	}
	return "/tmp/" + key, func() {}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req ai.TranscribeRequest) (*ai.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Transcript{
		Text:     f.text,
		Language: req.Language,
		Segments: []ai.TranscriptSegment{
			{Start: 0, End: 4.5, Text: f.text},
		},
	}, nil
}

// blockingTranscriber holds every call until release is closed
type blockingTranscriber struct {
	text    string
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingTranscriber(text string) *blockingTranscriber {
	return &blockingTranscriber{text: text, release: make(chan struct{})}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, req ai.TranscribeRequest) (*ai.Transcript, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &ai.Transcript{Text: b.text, Language: req.Language}, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	model string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{
		Text:             f.text,
		Model:            f.model,
		PromptTokens:     120,
		CompletionTokens: 80,
	}, nil
}

func (f *fakeGenerator) set(text, model string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.model, f.err = text, model, err
}

type fakeEngines struct {
	transcriber ai.TranscriptionEngine
	generator   ai.GenerationEngine
}

func (f *fakeEngines) Transcriber(ctx context.Context) (ai.TranscriptionEngine, error) {
	if f.transcriber == nil {
		return nil, ai.ErrEngineUnavailable
	}
	return f.transcriber, nil
}

func (f *fakeEngines) Generator(ctx context.Context) (ai.GenerationEngine, error) {
	if f.generator == nil {
		return nil, ai.ErrEngineUnavailable
	}
	return f.generator, nil
}

func (f *fakeEngines) Tagger(ctx context.Context) (ai.NEREngine, error) {
	return nil, ai.ErrEngineUnavailable
}
