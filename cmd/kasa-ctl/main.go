// Command kasa-ctl sends requests to Kasa smart plugs.
//
// Devices are addressed by host, by MAC address (resolved through the
// neighbor table on every connect, so DHCP moves are followed), or by name
// from a YAML inventory.
//
// Usage:
//
//	kasa-ctl [flags] <module> <method> [json-params]
//	kasa-ctl [flags] -i
//
// Flags:
//
//	-config string        Device inventory file (YAML)
//	-device string        Inventory device name
//	-host string          Device host[:port]
//	-mac string           Device MAC address
//	-protocol string      iot or klap (default "iot")
//	-username string      KLAP account username (default $KASA_USERNAME)
//	-password string      KLAP account password (default $KASA_PASSWORD)
//	-protocol-log string  Capture protocol events to a .klog file
//	-metrics string       Serve Prometheus metrics on this address
//	-v                    Verbose (debug) logging
//	-i                    Interactive shell
//
// Examples:
//
//	# Read system information
//	kasa-ctl -host 192.168.1.20 system get_sysinfo
//
//	# Switch a plug off, following it across DHCP leases
//	kasa-ctl -mac 50:c7:bf:01:02:03 system set_relay_state '{"state":0}'
//
//	# Interactive shell for an inventory device, with protocol capture
//	kasa-ctl -config devices.yaml -device garage -protocol-log garage.klog -i
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kasa-protocol/kasa-go/cmd/kasa-ctl/interactive"
	"github.com/kasa-protocol/kasa-go/cmd/kasa-ctl/inventory"
	"github.com/kasa-protocol/kasa-go/pkg/client"
	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// Config holds the command-line configuration.
type Config struct {
	ConfigFile  string
	Device      string
	Host        string
	MAC         string
	Interface   string
	Protocol    string
	Username    string
	Password    string
	NeighborTab string
	ProtocolLog string
	MetricsAddr string
	Timeout     time.Duration
	Verbose     bool
	Interactive bool
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Device inventory file (YAML)")
	flag.StringVar(&config.Device, "device", "", "Inventory device name")
	flag.StringVar(&config.Host, "host", "", "Device host[:port]")
	flag.StringVar(&config.MAC, "mac", "", "Device MAC address")
	flag.StringVar(&config.Interface, "interface", "", "Restrict MAC resolution to this interface")
	flag.StringVar(&config.Protocol, "protocol", string(inventory.ProtocolIOT), "Protocol: iot or klap")
	flag.StringVar(&config.Username, "username", os.Getenv("KASA_USERNAME"), "KLAP account username")
	flag.StringVar(&config.Password, "password", os.Getenv("KASA_PASSWORD"), "KLAP account password")
	flag.StringVar(&config.NeighborTab, "arp", endpoint.DefaultNeighborTablePath, "Neighbor table used for MAC resolution")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Capture protocol events to a .klog file")
	flag.StringVar(&config.MetricsAddr, "metrics", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	flag.DurationVar(&config.Timeout, "timeout", interactive.DefaultCommandTimeout, "Timeout per command, retries included")
	flag.BoolVar(&config.Verbose, "v", false, "Verbose (debug) logging")
	flag.BoolVar(&config.Interactive, "i", false, "Interactive shell")
}

func main() {
	flag.Parse()

	logOut := &switchWriter{w: os.Stderr}
	logger := newLogger(logOut, config.Verbose)

	if !config.Interactive && flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: <module> <method> required (or -i)")
		flag.Usage()
		os.Exit(2)
	}

	dev, err := selectDevice(config)
	if err != nil {
		fatal(logger, "invalid device selection", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var resolver endpoint.AddressResolver
	if dev.MAC != "" {
		table, err := endpoint.NewNeighborTable(ctx, endpoint.NeighborTableConfig{
			Path:   config.NeighborTab,
			Logger: logger,
		})
		if err != nil {
			fatal(logger, "failed to open neighbor table", err)
		}
		defer table.Close()
		resolver = table
	}

	provider, err := dev.Provider(resolver)
	if err != nil {
		fatal(logger, "invalid device address", err)
	}

	base := client.DefaultConfig()
	base.Logger = logger

	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			fatal(logger, "failed to open protocol log", err)
		}
		defer func() {
			logger.Debug("protocol log closed", "path", config.ProtocolLog, "events", fl.Written())
			_ = fl.Close()
		}()
		base.ProtocolLogger = fl
	}

	if config.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		base.Metrics = client.NewMetrics(reg)
		go serveMetrics(logger, config.MetricsAddr, reg)
	}

	c := client.New(provider, dev.ClientConfig(base))
	defer c.Close()

	logger.Debug("device selected",
		"device", dev.Identity(),
		"protocol", dev.Protocol,
		"dynamic", endpoint.IsDynamic(provider))

	if config.Interactive {
		shell, err := interactive.New(c, config.Timeout)
		if err != nil {
			fatal(logger, "failed to start shell", err)
		}
		// Route log output through readline so it does not garble the prompt.
		logOut.Set(shell.Stdout())
		shell.Run(ctx, cancel)
		return
	}

	reqCtx, reqCancel := context.WithTimeout(ctx, config.Timeout)
	defer reqCancel()

	params := strings.Join(flag.Args()[2:], " ")
	if err := interactive.Call(reqCtx, c, os.Stdout, flag.Arg(0), flag.Arg(1), params); err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", fault.KindOf(err), err)
		os.Exit(1)
	}
}

// selectDevice builds the device from -host/-mac or looks it up in the
// inventory.
func selectDevice(cfg Config) (inventory.Device, error) {
	if cfg.Host != "" || cfg.MAC != "" {
		dev := inventory.Device{
			Host:      cfg.Host,
			MAC:       cfg.MAC,
			Interface: cfg.Interface,
			Protocol:  inventory.Protocol(cfg.Protocol),
			Username:  cfg.Username,
			Password:  cfg.Password,
		}
		return dev, dev.Validate()
	}

	if cfg.ConfigFile == "" {
		return inventory.Device{}, errors.New("one of -host, -mac or -config is required")
	}
	inv, err := inventory.Load(cfg.ConfigFile)
	if err != nil {
		return inventory.Device{}, err
	}

	switch {
	case cfg.Device != "":
		return inv.Find(cfg.Device)
	case len(inv.Devices) == 1:
		return inv.Devices[0], nil
	default:
		return inventory.Device{}, fmt.Errorf("%s lists %d devices, select one with -device", cfg.ConfigFile, len(inv.Devices))
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// switchWriter lets the log output move to readline once the shell starts.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}
