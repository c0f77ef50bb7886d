package discovery

import (
	"fmt"
	"time"
)

// Module is a discovered hardware security module on the network.
type Module struct {
	// Serial is the module serial number (e.g., "315009")
	Serial string

	// Hostname is the mDNS hostname (e.g., "mtc-315009.local")
	Hostname string

	// IP is the address the maintenance service answered from
	IP string

	// Port is the maintenance service port
	Port int

	// Metadata holds the mDNS TXT record data. Observed keys on real
	// modules: "model", "fw" (running firmware version), "state".
	Metadata map[string]string

	// DiscoveredAt is when the module was seen
	DiscoveredAt time.Time
}

// String returns a human-readable description of the module.
func (m *Module) String() string {
	return fmt.Sprintf("MTC module %s (%s) at %s:%d", m.Serial, m.Hostname, m.IP, m.Port)
}

// Addr returns the host:port of the maintenance service.
func (m *Module) Addr() string {
	return fmt.Sprintf("%s:%d", m.IP, m.Port)
}

// Model returns the advertised hardware model, or empty when the module
// did not include one.
func (m *Module) Model() string {
	return m.GetMetadata("model")
}

// RunningVersion returns the advertised firmware version, or empty.
func (m *Module) RunningVersion() string {
	return m.GetMetadata("fw")
}

// GetMetadata retrieves a TXT record value by key, or empty string.
func (m *Module) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}
