package iot

import (
	"context"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Module and method names.
const (
	ModuleSystem = "system"

	MethodGetSysInfo    = "get_sysinfo"
	MethodSetRelayState = "set_relay_state"
	MethodSetLEDOff     = "set_led_off"
	MethodSetDevAlias   = "set_dev_alias"
	MethodReboot        = "reboot"
)

// Requester issues requests. *client.Client implements it.
type Requester interface {
	Request(ctx context.Context, module, method string, params any, project wire.Projection) (any, error)
}

// SysInfo is the common part of a plug's system information.
type SysInfo struct {
	Alias      string    `json:"alias"`
	Model      string    `json:"model"`
	MAC        string    `json:"mac"`
	DeviceID   string    `json:"deviceId"`
	HWVersion  string    `json:"hw_ver"`
	SWVersion  string    `json:"sw_ver"`
	RelayState wire.Bool `json:"relay_state"`
	LEDOff     wire.Bool `json:"led_off"`

	// OnTime is the relay's on-time in seconds, as reported. Some firmware
	// reports negative values; they are passed through.
	OnTime int64 `json:"on_time"`

	RSSI int `json:"rssi"`
}

// On reports whether the relay is closed.
func (s *SysInfo) On() bool {
	return bool(s.RelayState)
}

// LEDOn reports whether the status LED is enabled.
func (s *SysInfo) LEDOn() bool {
	return !bool(s.LEDOff)
}

// Plug controls a smart plug.
type Plug struct {
	r Requester
}

// NewPlug returns a Plug issuing requests through r.
func NewPlug(r Requester) *Plug {
	return &Plug{r: r}
}

// SysInfo fetches the plug's system information.
func (p *Plug) SysInfo(ctx context.Context) (*SysInfo, error) {
	v, err := p.r.Request(ctx, ModuleSystem, MethodGetSysInfo, struct{}{}, wire.Into[SysInfo]())
	if err != nil {
		return nil, err
	}
	info := v.(SysInfo)
	return &info, nil
}

// SetRelayState switches the relay.
func (p *Plug) SetRelayState(ctx context.Context, on bool) error {
	return p.call(ctx, MethodSetRelayState, map[string]any{"state": wire.Bool(on)})
}

// SetLED enables or disables the status LED.
func (p *Plug) SetLED(ctx context.Context, on bool) error {
	return p.call(ctx, MethodSetLEDOff, map[string]any{"off": wire.Bool(!on)})
}

// SetAlias renames the plug.
func (p *Plug) SetAlias(ctx context.Context, alias string) error {
	return p.call(ctx, MethodSetDevAlias, map[string]any{"alias": alias})
}

// Reboot restarts the plug after delay, rounded down to whole seconds.
func (p *Plug) Reboot(ctx context.Context, delay time.Duration) error {
	return p.call(ctx, MethodReboot, map[string]any{"delay": int64(delay / time.Second)})
}

func (p *Plug) call(ctx context.Context, method string, params any) error {
	_, err := p.r.Request(ctx, ModuleSystem, method, params, nil)
	return err
}
