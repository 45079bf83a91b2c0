// Package inventory loads the kasa-ctl device inventory.
//
// An inventory is a YAML file naming the devices kasa-ctl can talk to:
//
//	devices:
//	  - name: kitchen
//	    host: 192.168.1.20
//	  - name: garage
//	    mac: 50:c7:bf:01:02:03
//	    protocol: klap
//	    username: me@example.com
//	    password: secret
//	    max_attempts: 3
//	    retry_backoff: 250ms
package inventory

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kasa-protocol/kasa-go/pkg/client"
	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/klap"
	"github.com/kasa-protocol/kasa-go/pkg/policy"
)

// Protocol selects the device's transport.
type Protocol string

const (
	// ProtocolIOT is the framed TCP protocol on port 9999.
	ProtocolIOT Protocol = "iot"
	// ProtocolKLAP is the authenticated HTTP protocol on port 80.
	ProtocolKLAP Protocol = "klap"
)

// ErrDeviceNotFound is returned by Find for unknown names.
var ErrDeviceNotFound = errors.New("device not found")

// Inventory is the parsed inventory file.
type Inventory struct {
	Devices []Device `yaml:"devices"`
}

// Device is one inventory entry. Exactly one of Host and MAC is set.
type Device struct {
	Name string `yaml:"name"`

	// Host is a hostname or IP, optionally with a port.
	Host string `yaml:"host,omitempty"`

	// MAC is resolved through the neighbor table on every connect.
	MAC string `yaml:"mac,omitempty"`

	// Interface restricts MAC resolution to one network interface.
	Interface string `yaml:"interface,omitempty"`

	// Port overrides the protocol's default port.
	Port uint16 `yaml:"port,omitempty"`

	Protocol Protocol `yaml:"protocol,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`

	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// RetryBackoff is the initial exponential backoff between retries that
	// carry no delay of their own. Zero retries immediately.
	RetryBackoff time.Duration `yaml:"retry_backoff,omitempty"`
}

// LoadError describes a failure to load an inventory.
type LoadError struct {
	// File is the inventory path ("" when parsing bytes).
	File string

	// Device names the offending entry, if any.
	Device string

	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Device != "" {
		fmt.Fprintf(&b, "device %q: ", e.Device)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse parses and validates an inventory.
func Parse(data []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	seen := make(map[string]bool, len(inv.Devices))
	for i := range inv.Devices {
		d := &inv.Devices[i]
		if d.Name == "" {
			return nil, &LoadError{Message: fmt.Sprintf("device %d has no name", i)}
		}
		if seen[d.Name] {
			return nil, &LoadError{Device: d.Name, Message: "duplicate name"}
		}
		seen[d.Name] = true

		if d.Protocol == "" {
			d.Protocol = ProtocolIOT
		}
		if err := d.Validate(); err != nil {
			return nil, &LoadError{Device: d.Name, Message: err.Error()}
		}
	}
	return &inv, nil
}

// Load reads and parses the inventory at path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	inv, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return inv, nil
}

// Find returns the device called name.
func (inv *Inventory) Find(name string) (Device, error) {
	for _, d := range inv.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}

// Validate checks the entry for consistency.
func (d Device) Validate() error {
	switch {
	case d.Host == "" && d.MAC == "":
		return errors.New("one of host or mac is required")
	case d.Host != "" && d.MAC != "":
		return errors.New("host and mac are mutually exclusive")
	}
	if d.MAC != "" {
		if _, err := net.ParseMAC(d.MAC); err != nil {
			return fmt.Errorf("invalid mac: %w", err)
		}
	}
	switch d.Protocol {
	case ProtocolIOT, ProtocolKLAP, "":
	default:
		return fmt.Errorf("unknown protocol %q (use iot or klap)", d.Protocol)
	}
	if d.MaxAttempts < 0 {
		return errors.New("max_attempts must not be negative")
	}
	if d.RetryBackoff < 0 {
		return errors.New("retry_backoff must not be negative")
	}
	return nil
}

// Identity is the name protocol events are stamped with.
func (d Device) Identity() string {
	if d.Name != "" {
		return d.Name
	}
	if d.MAC != "" {
		return d.MAC
	}
	return d.Host
}

// Provider builds the endpoint provider. resolver is used for MAC entries
// and may be nil otherwise.
func (d Device) Provider(resolver endpoint.AddressResolver) (endpoint.Provider, error) {
	if d.MAC != "" {
		if resolver == nil {
			return nil, fmt.Errorf("device %q: mac address requires a resolver", d.Name)
		}
		return endpoint.ParseDynamic(d.MAC, resolver, endpoint.ScanProfile{Interface: d.Interface})
	}

	address := d.Host
	if d.Port != 0 {
		host := d.Host
		if h, _, err := net.SplitHostPort(d.Host); err == nil {
			host = h
		}
		address = net.JoinHostPort(host, strconv.Itoa(int(d.Port)))
	}
	return endpoint.NewStatic(address)
}

// ClientConfig derives the client configuration for the device from base.
// base supplies logging, metrics and the TCP transport settings.
func (d Device) ClientConfig(base client.Config) client.Config {
	config := base
	config.DeviceID = d.Identity()

	if d.MaxAttempts > 0 {
		config.MaxAttempts = d.MaxAttempts
	}

	p := config.Policy
	if p == nil {
		p = policy.Default()
	}
	if d.RetryBackoff > 0 {
		bc := policy.DefaultBackoffConfig()
		bc.Initial = d.RetryBackoff
		if bc.Max < bc.Initial {
			bc.Max = bc.Initial
		}
		p = policy.WithBackoff(p, bc)
	}
	config.Policy = p

	if d.Port != 0 {
		config.Transport.DefaultPort = d.Port
	}

	if d.Protocol == ProtocolKLAP {
		kc := klap.DefaultConfig()
		kc.Credentials = klap.Credentials{Username: d.Username, Password: d.Password}
		if d.Port != 0 {
			kc.DefaultPort = d.Port
		}
		kc.DeviceID = config.DeviceID
		kc.Logger = config.Logger
		kc.ProtocolLogger = config.ProtocolLogger
		config.Factory = KLAPFactory(kc)
	}
	return config
}

// KLAPFactory returns a client.ExchangerFactory creating KLAP transports.
func KLAPFactory(config klap.Config) client.ExchangerFactory {
	return func(ep endpoint.Endpoint) (client.Exchanger, error) {
		return klap.New(ep, config), nil
	}
}
