package entities

// Segment represents a contiguous speech segment, in seconds
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// TranscriptionResult is what a transcription engine returns for one audio file
type TranscriptionResult struct {
	Text            string    `json:"text"`
	Language        string    `json:"language"`
	Segments        []Segment `json:"segments"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// SegmentsDuration returns the end of the last segment, used when an engine
// does not report the audio duration.
func SegmentsDuration(segments []Segment) float64 {
	var end float64
	for _, s := range segments {
		if s.End > end {
			end = s.End
		}
	}
	return end
}
