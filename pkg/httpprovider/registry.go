package httpprovider

import (
	"fmt"
	"sort"
	"sync"
)

// DriverFunc builds a Factory for a driver from shared settings.
type DriverFunc func(settings Settings) Factory

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFunc)
)

// RegisterDriver makes a driver available by name. Adapters call it from
// init(); registering the same name twice panics.
func RegisterDriver(name string, fn DriverFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if fn == nil {
		panic("httpprovider: RegisterDriver with nil func for " + name)
	}
	if _, dup := drivers[name]; dup {
		panic("httpprovider: RegisterDriver called twice for " + name)
	}
	drivers[name] = fn
}

// NewFactory returns the factory of the named driver.
func NewFactory(name string, settings Settings) (Factory, error) {
	driversMu.RLock()
	fn, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q, registered drivers: %v", ErrUnknownDriver, name, Drivers())
	}
	return fn(settings), nil
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
