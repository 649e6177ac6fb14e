package models

// DownloadState tracks the local state of a transaction's overlay file.
type DownloadState string

const (
	DownloadNotStarted DownloadState = "not-downloaded"
	DownloadInProgress DownloadState = "downloading"
	DownloadDone       DownloadState = "downloaded"
	DownloadSkipped    DownloadState = "skipped"
	DownloadFailed     DownloadState = "failed"
)

// TransactionRecord is a remote metadata entry describing one completed
// capture/upload session. The transaction id starts with the yyyymmdd date
// of the session.
type TransactionRecord struct {
	TransID  string
	Date     string
	FileName string
	Status   DownloadState
}

// DownloadEvent is one per-record notification emitted while a batch overlay
// download runs.
type DownloadEvent struct {
	TransID string
	Status  DownloadState
	Dest    string
	Err     error
}
