// Command kasa-log is a tool for viewing and analyzing Kasa protocol log files.
//
// Log files are created by kasa-ctl with the -protocol-log flag, or by any
// program that sets a log.FileLogger as the client's ProtocolLogger.
//
// Usage:
//
//	kasa-log <command> [flags] <file.klog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export events as flat records (JSON lines or CSV)
//	filter   Copy selected events to a new log file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only retry decisions
//	kasa-log view --category attempt plug.klog
//
//	# View traffic for one module
//	kasa-log view --module system plug.klog
//
//	# Keep one device's failed attempts and device errors
//	kasa-log filter --device-id 192.168.1.20 --failures -o plug-20.klog all.klog
//
//	# Export every attempt that ended in a reconnect
//	kasa-log export --format csv --directive reconnect plug.klog
//
//	# Show statistics
//	kasa-log stats plug.klog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kasa-protocol/kasa-go/cmd/kasa-log/commands"
)

const usage = `kasa-log - Kasa Protocol Log Analyzer

Usage:
  kasa-log <command> [flags] <file.klog>

Commands:
  view     View log file in human-readable format
  export   Export events as flat records (JSON lines or CSV)
  filter   Copy selected events to a new log file
  stats    Show statistics about the log file

Use "kasa-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func newFlagSet(name, synopsis, usageLine string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "kasa-log %s - %s\n\nUsage:\n  %s\n\nFlags:\n", name, synopsis, usageLine)
		fs.PrintDefaults()
	}
	return fs
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", "kasa-log view [flags] <file.klog>")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, client)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, attempt, state, error)")
	module := fs.String("module", "", "Filter by device module (e.g. system)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{Module: *module}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export events as flat records (JSON lines or CSV)", "kasa-log export [flags] <file.klog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	selection := commands.SelectionFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	sel, err := selection()
	if err != nil {
		fail(err)
	}
	if err := commands.RunExport(path, *format, *output, sel); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Copy selected events to a new log file", "kasa-log filter -o <out.klog> [flags] <file.klog>")
	output := fs.String("o", "", "Output file (required)")
	selection := commands.SelectionFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	sel, err := selection()
	if err != nil {
		fail(err)
	}
	n, err := commands.RunFilter(path, *output, sel)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", "kasa-log stats [flags] <file.klog>")
	selection := commands.SelectionFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	sel, err := selection()
	if err != nil {
		fail(err)
	}
	if err := commands.RunStats(path, sel, os.Stdout); err != nil {
		fail(err)
	}
}
