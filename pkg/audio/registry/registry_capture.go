package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureDeviceFactory interface {
	Name() string
	NewCaptureDevice() (types.CaptureDevice, error)
}

type captureBackend struct {
	Name     string
	Priority int
	Factory  CaptureDeviceFactory
}

var (
	captureBackendsLocker sync.Mutex
	captureBackends       = map[string]captureBackend{}
)

// RegisterCaptureFactory makes a backend available under factory.Name().
// Names are case-insensitive and must be unique.
func RegisterCaptureFactory(
	priority int,
	factory CaptureDeviceFactory,
) {
	name := factory.Name()
	if name == "" {
		panic(fmt.Errorf("a CaptureDevice factory of type %T has an empty name", factory))
	}
	key := strings.ToLower(name)

	captureBackendsLocker.Lock()
	defer captureBackendsLocker.Unlock()
	if prev, ok := captureBackends[key]; ok {
		panic(fmt.Errorf("capture backend '%s' is already registered by %T", name, prev.Factory))
	}
	captureBackends[key] = captureBackend{
		Name:     name,
		Priority: priority,
		Factory:  factory,
	}
}

func sortedCaptureBackends() []captureBackend {
	captureBackendsLocker.Lock()
	backends := make([]captureBackend, 0, len(captureBackends))
	for _, backend := range captureBackends {
		backends = append(backends, backend)
	}
	captureBackendsLocker.Unlock()

	sort.Slice(backends, func(i, j int) bool {
		if backends[i].Priority != backends[j].Priority {
			return backends[i].Priority > backends[j].Priority
		}
		return backends[i].Name < backends[j].Name
	})
	return backends
}

// CaptureFactories returns the registered factories, highest priority first.
func CaptureFactories() []CaptureDeviceFactory {
	var factories []CaptureDeviceFactory
	for _, backend := range sortedCaptureBackends() {
		factories = append(factories, backend.Factory)
	}
	return factories
}

// CaptureBackendNames returns the registered backend names in the order of
// preference.
func CaptureBackendNames() []string {
	var names []string
	for _, backend := range sortedCaptureBackends() {
		names = append(names, backend.Name)
	}
	return names
}

func CaptureFactoryByName(name string) (CaptureDeviceFactory, bool) {
	captureBackendsLocker.Lock()
	defer captureBackendsLocker.Unlock()
	backend, ok := captureBackends[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return backend.Factory, true
}

func unregisterAll() {
	captureBackendsLocker.Lock()
	defer captureBackendsLocker.Unlock()
	captureBackends = map[string]captureBackend{}
}
