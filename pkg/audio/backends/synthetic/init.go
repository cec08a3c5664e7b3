package synthetic

import (
	"github.com/xaionaro-go/wavrecorder/pkg/audio/registry"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	Priority = 0
	Name     = "synthetic"
)

func init() {
	registry.RegisterCaptureFactory(Priority, CaptureDeviceFactory{})
}

type CaptureDeviceFactory struct{}

func (CaptureDeviceFactory) Name() string {
	return Name
}

func (CaptureDeviceFactory) NewCaptureDevice() (types.CaptureDevice, error) {
	return NewCaptureDevice(), nil
}
