package malgo

import (
	"github.com/xaionaro-go/wavrecorder/pkg/audio/registry"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	Priority = 80
	Name     = "malgo"
)

func init() {
	registry.RegisterCaptureFactory(Priority, CaptureDeviceFactory{})
}

type CaptureDeviceFactory struct{}

func (CaptureDeviceFactory) Name() string {
	return Name
}

func (CaptureDeviceFactory) NewCaptureDevice() (types.CaptureDevice, error) {
	return NewCaptureDevice()
}
