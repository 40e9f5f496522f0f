package domain

// AttachmentKind classifies an attachment by its extension.
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindDocument AttachmentKind = "document"
	KindAudio    AttachmentKind = "audio"
	KindVideo    AttachmentKind = "video"
	KindUnknown  AttachmentKind = "unknown"
)

// Outcome is the terminal state of one attachment.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// AttachmentRef is a candidate link found while extracting a record.
type AttachmentRef struct {
	URL       string          `json:"url"`
	Extension string          `json:"extension"`
	Kind      AttachmentKind  `json:"kind"`
	Eligible  bool            `json:"eligible"`
	Result    *DownloadResult `json:"result,omitempty"`
}

// DownloadResult records what happened to an AttachmentRef.
type DownloadResult struct {
	Outcome  Outcome `json:"outcome"`
	Path     string  `json:"path,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Attempts int     `json:"attempts,omitempty"`
	Error    string  `json:"error,omitempty"`
}
