// Package models defines the data types shared between the secure channel,
// the workflow orchestrator, the upload/download coordinators and the
// presentation layer.
package models

import "time"

// RemoteFile identifies a capture-output artifact on the remote host.
// Digest is empty until computed by the integrity verifier.
type RemoteFile struct {
	Path    string
	Size    int64
	ModTime time.Time
	Digest  string
}

// LocalFile is the local-filesystem counterpart of a transferred artifact.
// Once verification succeeds the value is treated as immutable.
type LocalFile struct {
	Path   string
	Size   int64
	Digest string
}

// SurveyStats summarizes the artifacts currently present on the capture
// device.
type SurveyStats struct {
	FileCount  int
	TotalBytes int64
}
