package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Auto(ctx context.Context) error
	CopyOnly(ctx context.Context) error
	DirectUpload(ctx context.Context) error
	UploadLocal(ctx context.Context) error
	Wipe(ctx context.Context) error
	Stats(ctx context.Context) error
	Query(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	UserStats(ctx context.Context) error
	StartCapture(ctx context.Context) error
	StopCapture(ctx context.Context) error
	RestartCapture(ctx context.Context) error
	Reboot(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Ping(ctx context.Context) error
}

const helpText = `Available commands:
  auto            stop capture, sync artifacts, delete verified remote copies
  copy            sync artifacts without stopping capture or deleting anything
  direct          stream remote artifacts straight to the ingestion API
  upload          upload local artifacts to the ingestion API
  wipe            delete all remote artifacts (asks for confirmation)
  stats           artifact count and size on the device
  query [from to] list upload transactions in a date range (yyyymmdd)
  download [from to]  download transaction overlays for a date range
  rank            show ingestion API user statistics
  start|stop|restart  control the capture service
  reboot|shutdown     power control (asks for confirmation)
  ping            check device reachability
  exit | quit     leave the program`

// runREPL starts a simple read-eval-print loop for the wardrive CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, context cancellation, or
// when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed but never stop the loop.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	printlnFn("wardrive CLI (type 'help' for commands)")

	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn("wd> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "auto":
			err = a.Auto(ctx)

		case "copy":
			err = a.CopyOnly(ctx)

		case "direct":
			err = a.DirectUpload(ctx)

		case "upload":
			err = a.UploadLocal(ctx)

		case "wipe":
			err = a.Wipe(ctx)

		case "stats":
			err = a.Stats(ctx)

		case "query":
			err = a.Query(ctx, args)

		case "download":
			err = a.Download(ctx, args)

		case "rank":
			err = a.UserStats(ctx)

		case "start":
			err = a.StartCapture(ctx)

		case "stop":
			err = a.StopCapture(ctx)

		case "restart":
			err = a.RestartCapture(ctx)

		case "reboot":
			err = a.Reboot(ctx)

		case "shutdown":
			err = a.Shutdown(ctx)

		case "ping":
			err = a.Ping(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
