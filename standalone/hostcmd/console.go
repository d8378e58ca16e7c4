package hostcmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"

	"gocnc/standalone"
)

// Console is an interactive MDI-style command line: unlike Link (which
// streams raw G-code), it tokenizes each input line with shell-style
// quoting rules so operators can mix control verbs ("pause", "abort",
// "status") with quoted G-code fragments, mirroring how a Klipper host
// shell tokenizes REPL input before dispatch.
type Console struct {
	mgr *standalone.Manager
	out io.Writer
}

// NewConsole creates a console around mgr, writing prompts and command
// output to out.
func NewConsole(mgr *standalone.Manager, out io.Writer) *Console {
	return &Console{mgr: mgr, out: out}
}

// Run reads lines from in until EOF or a "quit"/"exit" command,
// dispatching each to the manager or to a small set of built-in control
// verbs.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(c.out, "parse error: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		if done := c.dispatch(tokens); done {
			break
		}
	}
	return scanner.Err()
}

func (c *Console) dispatch(tokens []string) (quit bool) {
	switch strings.ToLower(tokens[0]) {
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "goodbye")
		return true

	case "help", "?":
		c.printHelp()

	case "status":
		state := c.mgr.GetState()
		if state == nil {
			fmt.Fprintln(c.out, "manager not initialized")
			return false
		}
		fmt.Fprintf(c.out, "pos=%+v running=%v\n", state.Position, c.mgr.IsRunning())

	case "pause":
		c.mgr.Pause()

	case "resume":
		c.mgr.Resume()

	case "abort":
		c.mgr.Stop()

	default:
		// Anything else is treated as a raw G-code line: re-join the
		// tokens so a quoted comment survives.
		gcodeLine := strings.Join(tokens, " ")
		if err := c.mgr.ProcessLine(gcodeLine); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		} else {
			fmt.Fprintln(c.out, "ok")
		}
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "Available commands:")
	fmt.Fprintln(c.out, "  status         - print current position and run state")
	fmt.Fprintln(c.out, "  pause          - pause the trajectory planner")
	fmt.Fprintln(c.out, "  resume         - resume the trajectory planner")
	fmt.Fprintln(c.out, "  abort          - clear the queue and stop")
	fmt.Fprintln(c.out, "  <g-code line>  - queue a line of G-code")
	fmt.Fprintln(c.out, "  quit/exit/q    - exit the console")
}
