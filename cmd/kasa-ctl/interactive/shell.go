// Package interactive provides the kasa-ctl interactive shell.
package interactive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/kasa-protocol/kasa-go/pkg/client"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/iot"
)

// DefaultCommandTimeout bounds one shell command, retries included.
const DefaultCommandTimeout = 30 * time.Second

// Shell handles interactive mode for kasa-ctl.
type Shell struct {
	client  *client.Client
	plug    *iot.Plug
	rl      *readline.Instance
	out     io.Writer
	timeout time.Duration
}

// New creates a shell issuing commands through c.
func New(c *client.Client, timeout time.Duration) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Provider().Identity() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(c, rl.Stdout(), timeout)
	s.rl = rl
	return s, nil
}

func newShell(c *client.Client, out io.Writer, timeout time.Duration) *Shell {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Shell{
		client:  c,
		plug:    iot.NewPlug(c),
		out:     out,
		timeout: timeout,
	}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if quit := s.Execute(ctx, line); quit {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "info", "i":
		s.cmdInfo(ctx)

	case "on":
		s.report(s.plug.SetRelayState(ctx, true))

	case "off":
		s.report(s.plug.SetRelayState(ctx, false))

	case "led":
		s.cmdLED(ctx, args)

	case "alias":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: alias <name>")
			return false
		}
		s.report(s.plug.SetAlias(ctx, strings.Join(args, " ")))

	case "reboot":
		s.cmdReboot(ctx, args)

	case "quit", "exit", "q":
		return true

	default:
		// Anything else is a raw "<module> <method> [json]" call.
		module, method, params, ok := SplitCall(input)
		if !ok {
			fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
			return false
		}
		if err := Call(ctx, s.client, s.out, module, method, params); err != nil {
			s.report(err)
		}
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Kasa Device Commands:
  Plug:
    info               - Show system information
    on | off           - Switch the relay
    led on|off         - Switch the status LED
    alias <name>       - Rename the device
    reboot [seconds]   - Reboot after a delay (default 1s)

  Raw:
    <module> <method> [json]
                       - Send any request, e.g. system get_sysinfo
                         or emeter get_realtime {}

  General:
    help               - Show this help
    quit               - Exit`)
}

func (s *Shell) cmdInfo(ctx context.Context) {
	info, err := s.plug.SysInfo(ctx)
	if err != nil {
		s.report(err)
		return
	}

	state := "off"
	if info.On() {
		state = "on"
	}
	led := "off"
	if info.LEDOn() {
		led = "on"
	}

	fmt.Fprintf(s.out, "Alias:    %s\n", info.Alias)
	fmt.Fprintf(s.out, "Model:    %s (hw %s, sw %s)\n", info.Model, info.HWVersion, info.SWVersion)
	fmt.Fprintf(s.out, "MAC:      %s\n", info.MAC)
	fmt.Fprintf(s.out, "Relay:    %s (on for %ds)\n", state, info.OnTime)
	fmt.Fprintf(s.out, "LED:      %s\n", led)
	if info.RSSI != 0 {
		fmt.Fprintf(s.out, "RSSI:     %d dBm\n", info.RSSI)
	}
}

func (s *Shell) cmdLED(ctx context.Context, args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(s.out, "Usage: led on|off")
		return
	}
	s.report(s.plug.SetLED(ctx, args[0] == "on"))
}

func (s *Shell) cmdReboot(ctx context.Context, args []string) {
	delay := time.Second
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Fprintf(s.out, "Invalid delay: %s\n", args[0])
			return
		}
		delay = time.Duration(n) * time.Second
	}
	s.report(s.plug.Reboot(ctx, delay))
}

func (s *Shell) report(err error) {
	if err == nil {
		fmt.Fprintln(s.out, "OK")
		return
	}
	fmt.Fprintf(s.out, "Error (%s): %v\n", fault.KindOf(err), err)
}

// SplitCall splits "<module> <method> [json]" into its parts. The params
// are the remainder of the line after the method and may contain spaces.
func SplitCall(line string) (module, method, params string, ok bool) {
	line = strings.TrimSpace(line)
	module, rest, found := strings.Cut(line, " ")
	if !found {
		return "", "", "", false
	}
	rest = strings.TrimSpace(rest)
	method, params, _ = strings.Cut(rest, " ")
	if method == "" {
		return "", "", "", false
	}
	return module, method, strings.TrimSpace(params), true
}

// ErrInvalidParams is returned by Call for params that are not a JSON object.
var ErrInvalidParams = errors.New("params must be a JSON object")

// Call sends module.method and writes the indented result to w. Empty
// params send an empty object.
func Call(ctx context.Context, r iot.Requester, w io.Writer, module, method, params string) error {
	var payload any = struct{}{}
	if params != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(params), &obj); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		payload = json.RawMessage(params)
	}

	result, err := r.Request(ctx, module, method, payload, nil)
	if err != nil {
		return err
	}

	raw, ok := result.(json.RawMessage)
	if !ok {
		raw, err = json.Marshal(result)
		if err != nil {
			return err
		}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", pretty.Bytes())
	return err
}
