// Package discovery finds MTC modules on the local network via mDNS.
//
// Modules advertise their maintenance interface as _mtc-maint._tcp and
// carry model/firmware metadata in TXT records. The scanner collects
// advertisements for a bounded window and can also wait for a specific
// module to reappear, which is how the serve command confirms a unit
// came back after an update.
package discovery
