package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Calls             map[string]*CallStats
	AttemptsByKind    map[string]int
	Directives        map[string]int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection or session.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	DeviceID  string
	Remote    string
}

// CallStats holds round-trip statistics for one module.method pair.
type CallStats struct {
	Responses  int
	DeviceErrs int
	Total      time.Duration
	Max        time.Duration
}

// Mean returns the average round trip, or zero without timed responses.
func (c *CallStats) Mean() time.Duration {
	if c.Responses == 0 {
		return 0
	}
	return c.Total / time.Duration(c.Responses)
}

// CollectStats aggregates the selected events of the capture at path.
func CollectStats(path string, sel Selection) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Calls:             make(map[string]*CallStats),
		AttemptsByKind:    make(map[string]int),
		Directives:        make(map[string]int),
	}

	err := eachSelected(path, sel, func(event log.Event) error {
		stats.add(event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.ConnectionID != "" {
		conn, ok := s.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.DeviceID != "" && conn.DeviceID == "" {
			conn.DeviceID = event.DeviceID
		}
		if event.RemoteAddr != "" && conn.Remote == "" {
			conn.Remote = event.RemoteAddr
		}
	}

	if m := event.Message; m != nil && m.Type == log.MessageTypeResponse {
		key := m.Module + "." + m.Method
		call, ok := s.Calls[key]
		if !ok {
			call = &CallStats{}
			s.Calls[key] = call
		}
		call.Responses++
		if m.ErrorCode != nil && *m.ErrorCode != 0 {
			call.DeviceErrs++
		}
		if m.RoundTrip != nil {
			call.Total += *m.RoundTrip
			if *m.RoundTrip > call.Max {
				call.Max = *m.RoundTrip
			}
		}
	}

	if a := event.Attempt; a != nil {
		s.AttemptsByKind[a.Kind]++
		if a.Directive != "" {
			s.Directives[a.Directive]++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, sel Selection, w io.Writer) error {
	stats, err := CollectStats(path, sel)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Kasa Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerClient} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryAttempt, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Calls) > 0 {
		fmt.Fprintln(w, "Calls:")
		for _, key := range sortedKeys(stats.Calls) {
			c := stats.Calls[key]
			fmt.Fprintf(w, "  %-32s %d responses, mean %s, max %s",
				key, c.Responses, formatDuration(c.Mean()), formatDuration(c.Max))
			if c.DeviceErrs > 0 {
				fmt.Fprintf(w, ", %d device errors", c.DeviceErrs)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(stats.AttemptsByKind) > 0 {
		fmt.Fprintln(w, "Attempts by Outcome:")
		for _, kind := range sortedKeys(stats.AttemptsByKind) {
			fmt.Fprintf(w, "  %-16s %d\n", kind+":", stats.AttemptsByKind[kind])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Directives) > 0 {
		fmt.Fprintln(w, "Directives:")
		for _, d := range sortedKeys(stats.Directives) {
			fmt.Fprintf(w, "  %-32s %d\n", d+":", stats.Directives[d])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.DeviceID != "" {
				fmt.Fprintf(w, "           Device: %s\n", c.stats.DeviceID)
			}
			if c.stats.Remote != "" {
				fmt.Fprintf(w, "           Remote: %s\n", c.stats.Remote)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
