package discovery

import (
	"strings"
	"testing"
)

func TestModuleString(t *testing.T) {
	m := &Module{
		Serial:   "315009",
		Hostname: "mtc-315009.local.",
		IP:       "192.168.1.42",
		Port:     7630,
	}

	s := m.String()
	for _, want := range []string{"315009", "mtc-315009.local.", "192.168.1.42", "7630"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestModuleAddr(t *testing.T) {
	m := &Module{IP: "10.0.0.5", Port: 7630}
	if got, want := m.Addr(), "10.0.0.5:7630"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

func TestModuleMetadataAccessors(t *testing.T) {
	m := &Module{
		Metadata: map[string]string{
			"model": "MTC-6414",
			"fw":    "2.4.1",
		},
	}

	if got, want := m.Model(), "MTC-6414"; got != want {
		t.Errorf("Model() = %q, want %q", got, want)
	}
	if got, want := m.RunningVersion(), "2.4.1"; got != want {
		t.Errorf("RunningVersion() = %q, want %q", got, want)
	}
	if got := m.GetMetadata("fw"); got != "2.4.1" {
		t.Errorf("GetMetadata(fw) = %q", got)
	}
	if got := m.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
}

func TestModuleNilMetadata(t *testing.T) {
	m := &Module{}
	if got := m.Model(); got != "" {
		t.Errorf("Model() on nil metadata = %q", got)
	}
	if got := m.GetMetadata("model"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q", got)
	}
}
