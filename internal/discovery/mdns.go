package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type of the module's maintenance
	// interface, the same endpoint the vendor's tooling talks to
	ServiceType = "_mtc-maint._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for module discovery
	DefaultScanTimeout = 10 * time.Second
)

// serialPattern matches module hostnames (e.g., "mtc-315009.local").
var serialPattern = regexp.MustCompile(`^mtc-(\d+)\.local\.?$`)

// Scanner discovers modules over mDNS.
type Scanner struct {
	// Timeout is the maximum time to wait for module advertisements
	Timeout time.Duration
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// ScanForModules discovers all modules on the local network.
func (s *Scanner) ScanForModules() ([]*Module, error) {
	return s.ScanForModulesWithContext(context.Background())
}

// ScanForModulesWithContext discovers modules with a caller-supplied
// context on top of the scanner timeout.
func (s *Scanner) ScanForModulesWithContext(ctx context.Context) ([]*Module, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	modules := make([]*Module, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if m := s.parseServiceEntry(entry); m != nil {
				modules = append(modules, m)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	return modules, nil
}

// WaitForModule waits until the module with the given serial appears,
// or the timeout expires. Useful after pushing an update: the module
// drops off the network while flashing and re-advertises on boot.
func (s *Scanner) WaitForModule(ctx context.Context, serial string) (*Module, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Module, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if m := s.parseServiceEntry(entry); m != nil && m.Serial == serial {
				found <- m
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case m := <-found:
		return m, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("module with serial %s not found within timeout", serial)
	}
}

// parseServiceEntry converts a zeroconf entry to a Module, or nil when
// the entry is not one of ours. The serial comes from the hostname, or
// from a TXT record when the hostname does not follow the usual scheme
// (field units reflashed by the vendor sometimes lose it).
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Module {
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	var serial string
	if m := serialPattern.FindStringSubmatch(entry.HostName); len(m) >= 2 {
		serial = m[1]
	} else if v := metadata["serial"]; v != "" {
		serial = v
	}
	if serial == "" {
		return nil
	}

	// Prefer IPv4; the module's update client only binds v4.
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Module{
		Serial:       serial,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForModules scans with a custom timeout.
func ScanForModules(timeout time.Duration) ([]*Module, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForModules()
}
