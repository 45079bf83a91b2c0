package endpoint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Neighbor table defaults.
const (
	// DefaultNeighborTablePath is the Linux IPv4 neighbor (ARP) table.
	DefaultNeighborTablePath = "/proc/net/arp"

	// DefaultNeighborTTL is how long a mapping is trusted before the
	// table is read again.
	DefaultNeighborTTL = 5 * time.Minute
)

// arpFlagComplete marks a resolved entry in /proc/net/arp.
const arpFlagComplete = 0x2

// NeighborTableConfig configures a NeighborTable.
type NeighborTableConfig struct {
	// Path is the neighbor table file (default: /proc/net/arp).
	Path string

	// TTL bounds how long a mapping is served from cache (default: 5m).
	TTL time.Duration

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// NeighborTable is an AddressResolver reading the operating system's
// neighbor cache. It never scans: ScanProfile.Scan is ignored, and a device
// that has not recently talked to this host is reported as unknown.
//
// Mappings are cached for TTL. Invalidate drops one mapping, forcing the
// next Resolve for that address to read the table again.
type NeighborTable struct {
	path   string
	cache  *bigcache.BigCache
	logger *slog.Logger
}

// NewNeighborTable creates a resolver. Call Close to release the cache.
func NewNeighborTable(ctx context.Context, config NeighborTableConfig) (*NeighborTable, error) {
	if config.Path == "" {
		config.Path = DefaultNeighborTablePath
	}
	if config.TTL <= 0 {
		config.TTL = DefaultNeighborTTL
	}

	cacheConfig := bigcache.DefaultConfig(config.TTL)
	cacheConfig.Shards = 16
	cacheConfig.MaxEntriesInWindow = 1024
	cacheConfig.MaxEntrySize = net.IPv6len
	cacheConfig.CleanWindow = config.TTL
	cacheConfig.Verbose = false

	cache, err := bigcache.New(ctx, cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create neighbor cache: %w", err)
	}

	return &NeighborTable{
		path:   config.Path,
		cache:  cache,
		logger: config.Logger,
	}, nil
}

// Resolve returns the IP mapped to hw, reading the table on a cache miss.
func (n *NeighborTable) Resolve(ctx context.Context, hw net.HardwareAddr, profile ScanProfile) (net.IP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(hw, profile.Interface)
	if entry, err := n.cache.Get(key); err == nil {
		return net.IP(bytes.Clone(entry)), nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, fmt.Errorf("neighbor cache: %w", err)
	}

	entries, err := n.readTable()
	if err != nil {
		return nil, err
	}

	var found net.IP
	for _, e := range entries {
		if profile.Interface != "" && e.device != profile.Interface {
			continue
		}
		k := cacheKey(e.hw, profile.Interface)
		if err := n.cache.Set(k, e.ip); err != nil {
			n.debugLog("neighbor cache set failed", "key", k, "error", err)
		}
		if bytes.Equal(e.hw, hw) {
			found = e.ip
		}
	}

	n.debugLog("neighbor table read", "path", n.path, "entries", len(entries), "hw", hw.String(), "found", found != nil)
	return found, nil
}

// Invalidate drops the cached mapping for hw on every interface.
func (n *NeighborTable) Invalidate(hw net.HardwareAddr) {
	prefix := hw.String() + "@"
	iter := n.cache.Iterator()
	var stale []string
	for iter.SetNext() {
		info, err := iter.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.Key(), prefix) {
			stale = append(stale, info.Key())
		}
	}
	for _, key := range stale {
		_ = n.cache.Delete(key)
	}
	n.debugLog("neighbor mapping invalidated", "hw", hw.String(), "dropped", len(stale))
}

// Close releases the cache.
func (n *NeighborTable) Close() error {
	return n.cache.Close()
}

type neighborEntry struct {
	ip     net.IP
	hw     net.HardwareAddr
	device string
}

func (n *NeighborTable) readTable() ([]neighborEntry, error) {
	f, err := os.Open(n.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open neighbor table: %w", err)
	}
	defer f.Close()

	return parseNeighborTable(f)
}

// parseNeighborTable parses the /proc/net/arp format:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.23     0x1         0x2         50:c7:bf:01:02:03     *        eth0
func parseNeighborTable(r io.Reader) ([]neighborEntry, error) {
	var entries []neighborEntry

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}

		ip := net.ParseIP(fields[0])
		if ip == nil {
			continue
		}
		flags, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 32)
		if err != nil || flags&arpFlagComplete == 0 {
			continue
		}
		hw, err := net.ParseMAC(fields[3])
		if err != nil || isZeroHW(hw) {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			ip = v4
		}

		entries = append(entries, neighborEntry{ip: ip, hw: hw, device: fields[5]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read neighbor table: %w", err)
	}
	return entries, nil
}

func cacheKey(hw net.HardwareAddr, iface string) string {
	return hw.String() + "@" + iface
}

func isZeroHW(hw net.HardwareAddr) bool {
	for _, b := range hw {
		if b != 0 {
			return false
		}
	}
	return true
}

func (n *NeighborTable) debugLog(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ AddressResolver = (*NeighborTable)(nil)
