package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// createTestLogFile writes events to a temporary log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExtension)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func exportEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	code := 0
	rtt := 4 * time.Millisecond
	return []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			DeviceID:     "plug-1",
			Message: &log.MessageEvent{
				Type:   log.MessageTypeRequest,
				Module: "system",
				Method: "get_sysinfo",
			},
		},
		{
			Timestamp:    ts.Add(rtt),
			ConnectionID: "abc12345",
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			DeviceID:     "plug-1",
			Message: &log.MessageEvent{
				Type:      log.MessageTypeResponse,
				Module:    "system",
				Method:    "get_sysinfo",
				ErrorCode: &code,
				RoundTrip: &rtt,
				Payload:   map[string]any{"alias": "Lamp"},
			},
		},
	}
}

func readJSONL(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, exportEvents())

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath, Selection{}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := readJSONL(t, outPath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["event"] != "request" || lines[0]["call"] != "system.get_sysinfo" || lines[0]["dir"] != "OUT" {
		t.Errorf("request record = %v", lines[0])
	}
	if _, ok := lines[0]["err_code"]; ok {
		t.Errorf("request record carries err_code: %v", lines[0])
	}

	resp := lines[1]
	if resp["err_code"] != 0.0 || resp["round_trip_ms"] != 4.0 || resp["device"] != "plug-1" {
		t.Errorf("response record = %v", resp)
	}
	payload, ok := resp["payload"].(map[string]any)
	if !ok || payload["alias"] != "Lamp" {
		t.Errorf("expected payload alias Lamp, got %v", resp["payload"])
	}
}

func TestExportAttemptRecords(t *testing.T) {
	path := createTestLogFile(t, retryCapture())

	outPath := filepath.Join(t.TempDir(), "attempts.jsonl")
	if err := RunExport(path, "jsonl", outPath, Selection{Call: "system.get_sysinfo", Failures: true}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := readJSONL(t, outPath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 failed attempts, got %d", len(lines))
	}
	second := lines[1]
	if second["event"] != "attempt" || second["attempt"] != 1.0 || second["kind"] != "incomplete" {
		t.Errorf("attempt record = %v", second)
	}
	if second["directive"] != "retry+reconnect after 200ms" {
		t.Errorf("directive = %v", second["directive"])
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, append(exportEvents(), retryCapture()...))

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath, Selection{}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected header + 9 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(recordColumns, ",") {
		t.Errorf("header = %v", records[0])
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[name] = i
	}

	resp := records[2]
	if resp[col["event"]] != "response" || resp[col["err_code"]] != "0" || resp[col["round_trip_ms"]] != "4.000" {
		t.Errorf("response row = %v", resp)
	}

	thrown := records[8]
	if thrown[col["call"]] != "system.set_relay_state" || thrown[col["attempt"]] != "0" ||
		thrown[col["kind"]] != "device" || thrown[col["directive"]] != "throw" {
		t.Errorf("attempt row = %v", thrown)
	}

	state := records[9]
	if state[col["event"]] != "state" || !strings.Contains(state[col["detail"]], "-> CONNECTED") {
		t.Errorf("state row = %v", state)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, exportEvents())

	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"), Selection{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
