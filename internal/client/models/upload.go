package models

// UploadState is the lifecycle state of one queued upload. Transitions are
// monotonic except for an explicit retry, which resets failed back to queued.
type UploadState string

const (
	UploadQueued     UploadState = "queued"
	UploadInProgress UploadState = "in-progress"
	UploadSucceeded  UploadState = "succeeded"
	UploadFailed     UploadState = "failed"
)

// Terminal reports whether the state is final for the current run.
func (s UploadState) Terminal() bool {
	return s == UploadSucceeded || s == UploadFailed
}

// UploadJob is one local artifact queued for upload to the ingestion API.
type UploadJob struct {
	ID        string
	Path      string
	Size      int64
	State     UploadState
	BytesSent int64
	TransID   string
	Err       error
}

// UploadEvent is one progress/status notification emitted while a batch
// upload runs. BytesSent is cumulative for the job, so a consumer can render
// a percentage without polling the filesystem.
type UploadEvent struct {
	JobID     string
	Path      string
	State     UploadState
	BytesSent int64
	Size      int64
	TransID   string
	Err       error
}
