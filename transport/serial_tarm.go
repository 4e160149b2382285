package transport

import (
	tarm "github.com/tarm/serial"
)

func openTarm(device string, cfg *config) (Port, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        device,
		Baud:        cfg.baudRate,
		ReadTimeout: cfg.readTimeout,
	})
	if err != nil {
		return nil, err
	}

	return port, nil
}
