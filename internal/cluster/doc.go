// Package cluster holds GetJSON, the shared JSON-over-HTTP request helper
// originally written alongside PostJSON for Torua's node-to-coordinator
// traffic. In this module it backs
// internal/coordinatorrpc.HealthMonitor's coordinator health probe; the
// node-registration and cluster-broadcast types, and the POST helper that
// had no remaining caller, used to live alongside it and were removed
// (see DESIGN.md).
package cluster
