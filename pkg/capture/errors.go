package capture

import (
	"errors"
)

var (
	ErrPermissionDenied         = errors.New("the permission to capture audio is not granted")
	ErrOutputFile               = errors.New("unable to write the output file")
	ErrUnsupportedParameter     = errors.New("unsupported capture parameter")
	ErrDeviceRejectedParameters = errors.New("the capture device rejected the parameters")
	ErrDeviceInit               = errors.New("unable to initialize the capture device")
	ErrDeviceRead               = errors.New("unable to read from the capture device")
	ErrInternal                 = errors.New("internal error")
	ErrConfigLocked             = errors.New("the configuration cannot be changed while recording")
	ErrReleased                 = errors.New("the session is released")
)
