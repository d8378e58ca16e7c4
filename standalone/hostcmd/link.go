// Package hostcmd is the non-real-time producer side of standalone
// mode: it owns the serial link to whatever is issuing canonical
// commands (a host PC running a G-code sender, or an interactive
// console) and feeds parsed lines into the standalone Manager, which in
// turn drives the trajectory planner core. Nothing in this package runs
// on the planner's own cycle thread.
package hostcmd

import (
	"bufio"
	"fmt"
	"io"

	"gocnc/standalone"
	hostserial "gocnc/host/serial"
)

// Link streams G-code lines from a serial port into a Manager and
// writes the manager's responses back out, the same pattern
// gopper-host uses to shuttle Klipper protocol frames, adapted here to
// a line-oriented G-code stream instead of binary VLQ frames.
type Link struct {
	port hostserial.Port
	mgr  *standalone.Manager
}

// Open opens the serial device described by cfg and wraps it around
// mgr.
func Open(cfg *hostserial.Config, mgr *standalone.Manager) (*Link, error) {
	port, err := hostserial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("hostcmd: opening link: %w", err)
	}
	return &Link{port: port, mgr: mgr}, nil
}

// Close releases the underlying serial port.
func (l *Link) Close() error {
	return l.port.Close()
}

// Run reads newline-terminated commands from the link until the port
// closes or the reader returns an error other than io.EOF, dispatching
// each line to the Manager and writing back whatever response it
// produced. This is the producer-side loop referenced in the
// concurrency model: it never touches the planner's queue directly,
// only through Manager.ProcessLine's serialized entry point.
func (l *Link) Run() error {
	scanner := bufio.NewScanner(l.port)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if err := l.mgr.ProcessLine(line); err != nil {
			l.mgr.SendResponse(fmt.Sprintf("error: %v\n", err))
		} else {
			l.mgr.SendResponse("ok\n")
		}

		if out := l.mgr.GetOutput(); len(out) > 0 {
			if _, err := l.port.Write(out); err != nil {
				return fmt.Errorf("hostcmd: writing response: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("hostcmd: reading link: %w", err)
	}
	return nil
}
