package ads1256

import (
	"errors"

	"adsbridge/core"
)

// ErrIdentityMismatch is matched by IdentityError
var ErrIdentityMismatch = errors.New("ads1256: unexpected device id")

// IdentityError reports the ID read from a device that is not the expected part
type IdentityError struct {
	Got  uint8
	Want uint8
}

func (e *IdentityError) Error() string {
	return "ads1256: unexpected device id " + core.Itoa(int(e.Got)) + ", want " + core.Itoa(int(e.Want))
}

// Is lets errors.Is match ErrIdentityMismatch
func (e *IdentityError) Is(target error) bool {
	return target == ErrIdentityMismatch
}

// ReadID returns the 4-bit device ID held in the top nibble of STATUS
func (d *Device) ReadID() (uint8, error) {
	if err := d.WaitReady(); err != nil {
		return 0, err
	}
	status, err := d.ReadRegister(RegStatus)
	if err != nil {
		return 0, err
	}
	return status >> StatusIDShift, nil
}

// Identify reads the device ID and checks it against ExpectedID. A mismatch
// is returned as *IdentityError.
func (d *Device) Identify() (uint8, error) {
	id, err := d.ReadID()
	if err != nil {
		return 0, err
	}
	if id != ExpectedID {
		return id, &IdentityError{Got: id, Want: ExpectedID}
	}
	return id, nil
}
