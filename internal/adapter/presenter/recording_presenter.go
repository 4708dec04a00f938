package presenter

import (
	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/common"
	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/recording"
	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// ToRecordingResponse converts a Recording entity to RecordingResponse DTO
func ToRecordingResponse(r *entities.Recording) *recording.RecordingResponse {
	if r == nil {
		return nil
	}

	response := &recording.RecordingResponse{
		ID:                 r.ID.String(),
		OriginalFilename:   r.OriginalFilename,
		FileSize:           r.FileSize,
		ContentType:        r.ContentType,
		Status:             string(r.Status),
		ErrorMessage:       r.ErrorMessage,
		DurationSeconds:    r.DurationSeconds,
		Transcript:         r.Transcript,
		TranscriptLanguage: r.TranscriptLanguage,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	for _, s := range r.Segments {
		response.Segments = append(response.Segments, recording.SegmentResponse{
			Start:   s.Start,
			End:     s.End,
			Text:    s.Text,
			Speaker: s.Speaker,
		})
	}
	return response
}

// ToRecordingListResponse converts a page of recordings
func ToRecordingListResponse(recs []*entities.Recording, total int64, page, pageSize int) *recording.RecordingListResponse {
	items := make([]*recording.RecordingResponse, len(recs))
	for i, r := range recs {
		items[i] = ToRecordingResponse(r)
	}
	return &recording.RecordingListResponse{
		Recordings: items,
		Pagination: common.NewPagination(page, pageSize, total),
	}
}
