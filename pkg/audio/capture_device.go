package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/registry"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureDevice struct {
	types.CaptureDevice
	BackendName string
}

func NewCaptureDevice(backendName string, device types.CaptureDevice) *CaptureDevice {
	return &CaptureDevice{
		CaptureDevice: device,
		BackendName:   backendName,
	}
}

var (
	lastSuccessfulCaptureFactory       registry.CaptureDeviceFactory
	lastSuccessfulCaptureFactoryLocker sync.Mutex
)

func getLastSuccessfulCaptureFactory() registry.CaptureDeviceFactory {
	lastSuccessfulCaptureFactoryLocker.Lock()
	defer lastSuccessfulCaptureFactoryLocker.Unlock()
	return lastSuccessfulCaptureFactory
}

// NewCaptureDeviceAuto returns the highest-priority registered backend which
// initializes and answers Ping. If none does, a dummy device is returned,
// which rejects every capture request.
func NewCaptureDeviceAuto(
	ctx context.Context,
) *CaptureDevice {
	factory := getLastSuccessfulCaptureFactory()
	if factory != nil {
		device, err := factory.NewCaptureDevice()
		if err == nil {
			if err := device.Ping(ctx); err == nil {
				return NewCaptureDevice(factory.Name(), device)
			}
			_ = device.Close()
		}
	}

	var mErr *multierror.Error
	for _, factory := range registry.CaptureFactories() {
		device, err := factory.NewCaptureDevice()
		logger.Debugf(ctx, "initializing capture backend '%s' result is %v", factory.Name(), err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize '%s': %w", factory.Name(), err))
			continue
		}

		err = device.Ping(ctx)
		logger.Debugf(ctx, "pinging capture backend '%s' result is %v", factory.Name(), err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to ping '%s': %w", factory.Name(), err))
			_ = device.Close()
			continue
		}

		lastSuccessfulCaptureFactoryLocker.Lock()
		defer lastSuccessfulCaptureFactoryLocker.Unlock()
		lastSuccessfulCaptureFactory = factory
		return NewCaptureDevice(factory.Name(), device)
	}

	logger.Infof(ctx, "was unable to initialize any capture backend: %v", mErr.ErrorOrNil())
	return NewCaptureDevice("dummy", CaptureDeviceDummy{})
}

// NewCaptureDeviceByName initializes the backend registered under the given
// name.
func NewCaptureDeviceByName(
	ctx context.Context,
	backendName string,
) (*CaptureDevice, error) {
	factory, ok := registry.CaptureFactoryByName(backendName)
	if !ok {
		return nil, fmt.Errorf("capture backend '%s' is not registered, available: %s", backendName, strings.Join(registry.CaptureBackendNames(), ", "))
	}

	device, err := factory.NewCaptureDevice()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize capture backend '%s': %w", backendName, err)
	}

	if err := device.Ping(ctx); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("capture backend '%s' is not usable: %w", backendName, err)
	}

	return NewCaptureDevice(factory.Name(), device), nil
}

type BackendStatus struct {
	Name  string
	Error error
}

// ProbeBackends initializes and pings every registered backend, closing each
// afterwards.
func ProbeBackends(ctx context.Context) []BackendStatus {
	var result []BackendStatus
	for _, factory := range registry.CaptureFactories() {
		status := BackendStatus{Name: factory.Name()}
		device, err := factory.NewCaptureDevice()
		if err != nil {
			status.Error = fmt.Errorf("unable to initialize: %w", err)
			result = append(result, status)
			continue
		}
		if err := device.Ping(ctx); err != nil {
			status.Error = fmt.Errorf("unable to ping: %w", err)
		}
		_ = device.Close()
		result = append(result, status)
	}
	return result
}
