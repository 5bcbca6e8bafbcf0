package camera

// FlashMode is the flash setting applied to each still capture.
type FlashMode int

const (
	FlashOff FlashMode = iota
	FlashOn
)

// Flash button labels.
const (
	LabelFlashOn  = "FLASH ON"
	LabelFlashOff = "FLASH OFF"
)

// Toggle cycles Off→On→Off.
func (f FlashMode) Toggle() FlashMode {
	if f == FlashOn {
		return FlashOff
	}
	return FlashOn
}

// Label returns the text shown on the flash control.
func (f FlashMode) Label() string {
	if f == FlashOn {
		return LabelFlashOn
	}
	return LabelFlashOff
}

// String implements fmt.Stringer.
func (f FlashMode) String() string {
	if f == FlashOn {
		return "on"
	}
	return "off"
}

// MarshalText encodes the mode as "on" or "off".
func (f FlashMode) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
