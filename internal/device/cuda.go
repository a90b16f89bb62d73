//go:build linux && cuda

package device

/*
#cgo LDFLAGS: -lcudart -L/usr/local/cuda/lib64
#cgo CFLAGS: -I/usr/local/cuda/include
#include <cuda_runtime.h>
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/23skdu/longbow-volley/internal/metrics"
)

var cudaPinnedBytes int64

func cudaTraceAlloc(delta int64) {
	newVal := atomic.AddInt64(&cudaPinnedBytes, delta)
	metrics.RecordPinnedMemory(newVal)
}

func cudaErr(op string, rc C.cudaError_t) error {
	return fmt.Errorf("%s failed: %s", op, C.GoString(C.cudaGetErrorString(rc)))
}

// CUDA drives the real device through the CUDA runtime. Pinned allocation
// sizes are tracked so frees can be accounted against the gauge.
type CUDA struct {
	device int
	mu     sync.Mutex
	sizes  map[unsafe.Pointer]int64
}

func NewCUDA() (*CUDA, error) {
	d := &CUDA{device: 0, sizes: make(map[unsafe.Pointer]int64)}

	if rc := C.cudaSetDevice(C.int(d.device)); rc != C.cudaSuccess {
		return nil, cudaErr("cudaSetDevice", rc)
	}

	var version C.int
	C.cudaDriverGetVersion(&version)
	fmt.Printf("CUDA Driver Version: %d.%d\n", version/1000, (version%100)/10)

	var runtimeVersion C.int
	C.cudaRuntimeGetVersion(&runtimeVersion)
	fmt.Printf("CUDA Runtime Version: %d.%d\n", runtimeVersion/1000, (runtimeVersion%100)/10)

	return d, nil
}

func (d *CUDA) MallocHost(size int64) (unsafe.Pointer, error) {
	var p unsafe.Pointer
	if rc := C.cudaMallocHost(&p, C.size_t(size)); rc != C.cudaSuccess {
		return nil, cudaErr("cudaMallocHost", rc)
	}
	d.mu.Lock()
	d.sizes[p] = size
	d.mu.Unlock()
	cudaTraceAlloc(size)
	return p, nil
}

func (d *CUDA) FreeHost(p unsafe.Pointer) error {
	if rc := C.cudaFreeHost(p); rc != C.cudaSuccess {
		return cudaErr("cudaFreeHost", rc)
	}
	d.mu.Lock()
	size, ok := d.sizes[p]
	delete(d.sizes, p)
	d.mu.Unlock()
	if ok {
		cudaTraceAlloc(-size)
	}
	return nil
}

func (d *CUDA) StreamCreate() (StreamHandle, error) {
	var s C.cudaStream_t
	if rc := C.cudaStreamCreate(&s); rc != C.cudaSuccess {
		return nil, cudaErr("cudaStreamCreate", rc)
	}
	return unsafe.Pointer(s), nil
}

func (d *CUDA) StreamDestroy(h StreamHandle) error {
	if rc := C.cudaStreamDestroy(C.cudaStream_t(h)); rc != C.cudaSuccess {
		return cudaErr("cudaStreamDestroy", rc)
	}
	return nil
}

func (d *CUDA) StreamSynchronize(h StreamHandle) error {
	if rc := C.cudaStreamSynchronize(C.cudaStream_t(h)); rc != C.cudaSuccess {
		return cudaErr("cudaStreamSynchronize", rc)
	}
	return nil
}

func (d *CUDA) StreamBeginCapture(h StreamHandle) error {
	if rc := C.cudaStreamBeginCapture(C.cudaStream_t(h), C.cudaStreamCaptureModeGlobal); rc != C.cudaSuccess {
		return cudaErr("cudaStreamBeginCapture", rc)
	}
	return nil
}

func (d *CUDA) StreamEndCapture(h StreamHandle) (GraphHandle, error) {
	var g C.cudaGraph_t
	if rc := C.cudaStreamEndCapture(C.cudaStream_t(h), &g); rc != C.cudaSuccess {
		return nil, cudaErr("cudaStreamEndCapture", rc)
	}
	return unsafe.Pointer(g), nil
}

func (d *CUDA) GraphInstantiate(gh GraphHandle) (ExecHandle, error) {
	var e C.cudaGraphExec_t
	if rc := C.cudaGraphInstantiate(&e, C.cudaGraph_t(gh), nil, nil, 0); rc != C.cudaSuccess {
		return nil, cudaErr("cudaGraphInstantiate", rc)
	}
	return unsafe.Pointer(e), nil
}

func (d *CUDA) GraphDestroy(gh GraphHandle) error {
	if rc := C.cudaGraphDestroy(C.cudaGraph_t(gh)); rc != C.cudaSuccess {
		return cudaErr("cudaGraphDestroy", rc)
	}
	return nil
}

func (d *CUDA) GraphExecLaunch(eh ExecHandle, h StreamHandle) error {
	if rc := C.cudaGraphLaunch(C.cudaGraphExec_t(eh), C.cudaStream_t(h)); rc != C.cudaSuccess {
		return cudaErr("cudaGraphLaunch", rc)
	}
	return nil
}

func (d *CUDA) GraphExecDestroy(eh ExecHandle) error {
	if rc := C.cudaGraphExecDestroy(C.cudaGraphExec_t(eh)); rc != C.cudaSuccess {
		return cudaErr("cudaGraphExecDestroy", rc)
	}
	return nil
}
