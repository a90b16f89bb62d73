//go:build !(linux && cuda)

package main

import (
	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
)

// Host-simulation backend: pure-Go device and identity-transform runtime.
func newBackend(rec logger.Recorder) (device.API, infer.Runtime, error) {
	host := device.NewHost()
	return host, infer.NewSimRuntime(host, rec), nil
}
