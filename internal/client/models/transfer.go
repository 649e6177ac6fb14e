package models

// TransferOutcome is the terminal (or pending) state of one transfer attempt.
type TransferOutcome string

const (
	TransferPending         TransferOutcome = "pending"
	TransferSucceeded       TransferOutcome = "succeeded"
	TransferHashMismatch    TransferOutcome = "hash-mismatch"
	TransferTransportFailed TransferOutcome = "transport-failed"
)

// TransferRecord describes one attempt to move a remote file to a local one
// (or the reverse for uploads). Outcome transitions to TransferSucceeded only
// after both digests are computed and equal.
type TransferRecord struct {
	ID           string
	Source       string
	Dest         string
	Bytes        int64
	RemoteDigest string
	LocalDigest  string
	Outcome      TransferOutcome
}
