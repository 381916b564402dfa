package transport

import (
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes one USB serial device found on the host.
type PortInfo struct {
	Path string
	VID  string
	PID  string
	// USBSerial is the serial number from the USB descriptor. It serves as
	// the provisional asset tag until the firmware reports the real one.
	USBSerial string
}

// ID renders the VID:PID pair the way udev does, lowercase hex.
func (p PortInfo) ID() string {
	return strings.ToLower(p.VID) + ":" + strings.ToLower(p.PID)
}

// ListUSBPorts enumerates every USB serial device present. Ports that are
// not USB (onboard UARTs etc) are skipped; boards only ever appear on USB.
func ListUSBPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var ports []PortInfo
	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		glog.V(2).Infof("usb serial %s vid=%s pid=%s serial=%q", d.Name, d.VID, d.PID, d.SerialNumber)
		ports = append(ports, PortInfo{
			Path:      d.Name,
			VID:       d.VID,
			PID:       d.PID,
			USBSerial: d.SerialNumber,
		})
	}
	return ports, nil
}
