//go:build linux && cuda

package main

import (
	"github.com/23skdu/longbow-volley/internal/device"
	"github.com/23skdu/longbow-volley/internal/infer"
	"github.com/23skdu/longbow-volley/internal/logger"
)

// Real backend: CUDA runtime device plus the nvinfer shim. The shim forwards
// runtime log messages to stdout itself.
func newBackend(rec logger.Recorder) (device.API, infer.Runtime, error) {
	api, err := device.NewCUDA()
	if err != nil {
		return nil, nil, err
	}
	rt, err := infer.NewTRTRuntime()
	if err != nil {
		return nil, nil, err
	}
	return api, rt, nil
}
