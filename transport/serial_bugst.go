package transport

import (
	bugst "go.bug.st/serial"
)

func openBugst(device string, cfg *config) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(device, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(cfg.readTimeout); err != nil {
		_ = port.Close()
		return nil, err
	}

	return port, nil
}

// ListPorts returns the serial ports found on the system.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}
