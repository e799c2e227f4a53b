package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultIIODevice is the sysfs directory of the first IIO device.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// IIOSampler reads channels from a Linux industrial-I/O device through sysfs
// (e.g. an MCP3008 on SPI). Samples wider than 10 bits are scaled down.
type IIOSampler struct {
	dir  string
	bits int
}

// NewIIOSampler creates a sampler for the device directory dir.
// bits is the native resolution of the converter; 0 means 10.
func NewIIOSampler(dir string, bits int) (*IIOSampler, error) {
	if bits == 0 {
		bits = 10
	}
	if bits < 10 || bits > 16 {
		return nil, fmt.Errorf("adc: unsupported resolution %d bits", bits)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("adc: open device: %w", err)
	}
	return &IIOSampler{dir: dir, bits: bits}, nil
}

// ReadChannel reads in_voltage<ch>_raw. Out-of-range channels return 0.
func (s *IIOSampler) ReadChannel(ch uint8) (uint16, error) {
	if !Valid(ch) {
		return 0, nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("in_voltage%d_raw", ch))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("adc: read channel %d: %w", ch, err)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("adc: parse channel %d: %w", ch, err)
	}
	v := uint16(raw >> uint(s.bits-10))
	if v > MaxSample {
		v = MaxSample
	}
	return v, nil
}
