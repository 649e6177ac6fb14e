package models

// WorkflowStep identifies one stage of the remote sync workflow.
type WorkflowStep string

const (
	StepStop     WorkflowStep = "stop"
	StepDiscover WorkflowStep = "discover"
	StepCopy     WorkflowStep = "copy"
	StepVerify   WorkflowStep = "verify"
	StepUpload   WorkflowStep = "upload"
	StepDelete   WorkflowStep = "delete"
)

// StepResult reports the outcome of one workflow step. File is empty for
// batch-level steps (stop, discover). Fatal marks a failure that aborted the
// whole run; per-file failures leave Fatal false and the run continues with
// the remaining files.
type StepResult struct {
	Step     WorkflowStep
	File     string
	Err      error
	Fatal    bool
	Record   *TransferRecord
	Discover []RemoteFile
	TransID  string
}
