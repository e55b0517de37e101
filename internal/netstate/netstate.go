// Package netstate holds the process-wide network-enable flag.
//
// The vault itself never touches the network; this flag exists so outer
// surfaces can check a single authoritative switch before doing anything
// network-facing (update checks, icon fetches). Default is disabled.
package netstate

import "sync"

var (
	mu      sync.RWMutex
	enabled bool
)

// SetEnabled sets the flag.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = v
}

// Enabled reports the flag.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}
