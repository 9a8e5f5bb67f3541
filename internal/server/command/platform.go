package command

import (
	"runtime"
	"sync"

	"akeno/internal/types"
)

// Detector resolves the local OS family and caches detected remote OS
// families per host so the right shell dialect is selected
type Detector struct {
	mu     sync.RWMutex
	remote map[string]types.Platform
}

// NewDetector creates a new platform detector
func NewDetector() *Detector {
	return &Detector{
		remote: make(map[string]types.Platform),
	}
}

// Local returns the local OS family
func (d *Detector) Local() types.Platform {
	switch runtime.GOOS {
	case "windows":
		return types.PlatformWindows
	case "darwin":
		return types.PlatformDarwin
	default:
		return types.PlatformLinux
	}
}

// Remote returns the cached OS family for a host, falling back to linux
// when the host has not been seen yet
func (d *Detector) Remote(host string) (types.Platform, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.remote[host]
	if !ok {
		return types.PlatformLinux, false
	}
	return p, true
}

// SetRemote records the OS family for a host
func (d *Detector) SetRemote(host string, platform types.Platform) {
	if !platform.Valid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remote[host] = platform
}
