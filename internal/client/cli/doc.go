// Package cli provides the interactive wardrive command-line client.
//
// It wires configuration, credentials, the secure channel to the capture
// device, and the ingestion API into an interactive REPL. Typical session:
// check the device with 'stats', run 'auto' to stop the capture service and
// sync artifacts down, then 'upload' to push them to the ingestion API.
//
// Key commands:
//   - auto / copy / direct — sync workflows (see services.WorkflowService)
//   - upload               — batch-upload local artifacts
//   - query / download     — transaction lookup and overlay download
//   - start / stop / restart / reboot / shutdown — device control
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
