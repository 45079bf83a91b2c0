package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// Record is the flat form of an event shared by the export formats.
type Record struct {
	Time        time.Time `json:"time"`
	Device      string    `json:"device,omitempty"`
	Remote      string    `json:"remote,omitempty"`
	Conn        string    `json:"conn,omitempty"`
	Event       string    `json:"event"`
	Dir         string    `json:"dir,omitempty"`
	Call        string    `json:"call,omitempty"`
	Attempt     *int      `json:"attempt,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Directive   string    `json:"directive,omitempty"`
	ErrCode     *int      `json:"err_code,omitempty"`
	RoundTripMS *float64  `json:"round_trip_ms,omitempty"`
	Bytes       int       `json:"bytes,omitempty"`
	Detail      string    `json:"detail,omitempty"`

	// Payload is only exported as JSON.
	Payload any `json:"payload,omitempty"`
}

var recordColumns = []string{
	"time", "device", "remote", "conn", "event", "dir", "call", "attempt",
	"kind", "directive", "err_code", "round_trip_ms", "bytes", "detail",
}

// recordOf flattens event.
func recordOf(event log.Event) Record {
	r := Record{
		Time:   event.Timestamp.UTC(),
		Device: event.DeviceID,
		Remote: event.RemoteAddr,
		Conn:   event.ConnectionID,
		Event:  strings.ToLower(typeLabel(event)),
	}

	switch {
	case event.Frame != nil:
		r.Dir = event.Direction.String()
		r.Bytes = event.Frame.Size
	case event.Message != nil:
		m := event.Message
		r.Dir = event.Direction.String()
		r.Call = m.Module + "." + m.Method
		r.ErrCode = m.ErrorCode
		r.Payload = m.Payload
		if m.RoundTrip != nil {
			ms := float64(m.RoundTrip.Microseconds()) / 1000
			r.RoundTripMS = &ms
		}
	case event.Attempt != nil:
		a := event.Attempt
		index := a.Index
		r.Call = a.Module + "." + a.Method
		r.Attempt = &index
		r.Kind = a.Kind
		r.Directive = a.Directive
		r.Detail = a.Error
	case event.StateChange != nil:
		sc := event.StateChange
		r.Detail = fmt.Sprintf("%s %s -> %s", sc.Entity, sc.OldState, sc.NewState)
		if sc.Reason != "" {
			r.Detail += " (" + sc.Reason + ")"
		}
	case event.Error != nil:
		r.ErrCode = event.Error.Code
		r.Detail = event.Error.Message
		if event.Error.Context != "" {
			r.Detail = event.Error.Context + ": " + r.Detail
		}
	}
	return r
}

// row returns the record in recordColumns order.
func (r Record) row() []string {
	optInt := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}
	var rtt, bytes string
	if r.RoundTripMS != nil {
		rtt = strconv.FormatFloat(*r.RoundTripMS, 'f', 3, 64)
	}
	if r.Bytes > 0 {
		bytes = strconv.Itoa(r.Bytes)
	}
	return []string{
		r.Time.Format("2006-01-02T15:04:05.000000Z"),
		r.Device,
		r.Remote,
		r.Conn,
		r.Event,
		r.Dir,
		r.Call,
		optInt(r.Attempt),
		r.Kind,
		r.Directive,
		optInt(r.ErrCode),
		rtt,
		bytes,
		r.Detail,
	}
}

type recordWriter interface {
	write(Record) error
	flush() error
}

type jsonlWriter struct{ enc *json.Encoder }

func (w jsonlWriter) write(r Record) error { return w.enc.Encode(r) }
func (w jsonlWriter) flush() error         { return nil }

type csvWriter struct{ cw *csv.Writer }

func (w csvWriter) write(r Record) error { return w.cw.Write(r.row()) }

func (w csvWriter) flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

func newRecordWriter(format string, w io.Writer) (recordWriter, error) {
	switch format {
	case "jsonl":
		return jsonlWriter{enc: json.NewEncoder(w)}, nil
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(recordColumns); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		return csvWriter{cw: cw}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// RunExport writes the selected events of the capture at path as flat
// records to output, or to stdout when output is empty.
func RunExport(path, format, output string, sel Selection) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	var out io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	rw, err := newRecordWriter(format, out)
	if err != nil {
		return err
	}
	err = eachSelected(path, sel, func(event log.Event) error {
		if err := rw.write(recordOf(event)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	})
	if ferr := rw.flush(); err == nil && ferr != nil {
		err = fmt.Errorf("failed to flush output: %w", ferr)
	}
	return err
}
