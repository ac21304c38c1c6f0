package engine

// Event names, per spec §6.
const (
	EventDownloadList     = "download-list"
	EventDownloadStarted  = "download-started"
	EventDownloadProgress = "download-progress"
	EventDownloadComplete = "download-complete"
	EventDownloadError    = "download-error"
	EventTotalSpeedUpdate = "total-speed-update"
)

// Event is one message on the outbound event channel described in spec §6.
// The transport that carries these to a remote client is out of scope;
// the engine only ever produces values of this type.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// ProgressPayload is the body of a download-progress event.
type ProgressPayload struct {
	ID         string  `json:"id"`
	Progress   float64 `json:"progress"`
	Downloaded int64   `json:"downloaded"`
	TotalSize  int64   `json:"totalSize"`
	Speed      float64 `json:"speed"`
	ETA        float64 `json:"eta,omitempty"`
	Filename   string  `json:"filename"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
}

// CompletePayload is the body of a download-complete event.
type CompletePayload struct {
	ID       string `json:"id"`
	FilePath string `json:"filePath"`
}

// ErrorPayload is the body of a download-error event.
type ErrorPayload struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// TotalSpeedPayload is the body of a total-speed-update event.
type TotalSpeedPayload struct {
	TotalSpeed float64 `json:"totalSpeed"`
}

// ListPayload is the body of the one-shot download-list snapshot a new
// subscriber receives on attach.
type ListPayload struct {
	Entries []*Entry `json:"entries"`
}

func progressPayload(e *Entry) ProgressPayload {
	eta, _ := e.ETA()
	return ProgressPayload{
		ID:         e.ID,
		Progress:   e.Progress(),
		Downloaded: e.DownloadedSize,
		TotalSize:  e.TotalSize,
		Speed:      e.CurrentSpeed,
		ETA:        eta,
		Filename:   e.Filename,
		Status:     string(e.getStatus()),
		Error:      e.Error,
	}
}
