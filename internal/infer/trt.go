//go:build linux && cuda

package infer

/*
#cgo LDFLAGS: -L${SRCDIR} -ltrt_shim -lnvinfer -lcudart -L/usr/local/cuda/lib64
#cgo CFLAGS: -I/usr/local/cuda/include -I${SRCDIR}
#include <stdint.h>
#include <stdlib.h>

// Thin C shim over nvinfer (built separately, see scripts/). The shim installs
// an ILogger that writes runtime messages to stdout unfiltered.
extern void* trtCreateRuntime(void);
extern void  trtDestroyRuntime(void* runtime);
extern void* trtDeserializeEngine(void* runtime, const void* data, size_t size);
extern void  trtDestroyEngine(void* engine);
extern int   trtEngineNbIOTensors(void* engine);
extern const char* trtEngineIOTensorName(void* engine, int idx);
extern int   trtEngineTensorIOMode(void* engine, const char* name);
extern void* trtCreateExecutionContext(void* engine);
extern void  trtDestroyContext(void* context);
extern int   trtContextTensorShape(void* context, const char* name, int64_t* dims, int maxDims);
extern int   trtContextTensorDataType(void* context, const char* name);
extern int   trtContextTensorFormat(void* context, const char* name);
extern int   trtContextComponentsPerElement(void* context, const char* name);
extern int   trtSetInputTensorAddress(void* context, const char* name, void* addr);
extern int   trtSetTensorAddress(void* context, const char* name, void* addr);
extern int   trtEnqueue(void* context, void* stream);
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/23skdu/longbow-volley/internal/device"
)

const trtMaxDims = 8

// TRTRuntime drives the real inference runtime through the C shim.
type TRTRuntime struct {
	h unsafe.Pointer
}

func NewTRTRuntime() (*TRTRuntime, error) {
	h := C.trtCreateRuntime()
	if h == nil {
		return nil, fmt.Errorf("trtCreateRuntime failed")
	}
	return &TRTRuntime{h: h}, nil
}

func (r *TRTRuntime) Deserialize(data []byte) (Engine, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plan data")
	}
	h := C.trtDeserializeEngine(r.h, unsafe.Pointer(&data[0]), C.size_t(len(data)))
	if h == nil {
		return nil, fmt.Errorf("trtDeserializeEngine failed")
	}
	return &trtEngine{h: h}, nil
}

func (r *TRTRuntime) Destroy() {
	if r.h != nil {
		C.trtDestroyRuntime(r.h)
		r.h = nil
	}
}

type trtEngine struct {
	h unsafe.Pointer
}

func (e *trtEngine) NbIOTensors() int {
	return int(C.trtEngineNbIOTensors(e.h))
}

func (e *trtEngine) IOTensorName(idx int) string {
	return C.GoString(C.trtEngineIOTensorName(e.h, C.int(idx)))
}

func (e *trtEngine) TensorIOMode(name string) TensorIOMode {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return TensorIOMode(C.trtEngineTensorIOMode(e.h, cname))
}

func (e *trtEngine) CreateExecutionContext() (ExecutionContext, error) {
	h := C.trtCreateExecutionContext(e.h)
	if h == nil {
		return nil, fmt.Errorf("trtCreateExecutionContext failed")
	}
	return &trtContext{h: h}, nil
}

func (e *trtEngine) Destroy() {
	if e.h != nil {
		C.trtDestroyEngine(e.h)
		e.h = nil
	}
}

type trtContext struct {
	h unsafe.Pointer
}

func (c *trtContext) TensorShape(name string) []int64 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var dims [trtMaxDims]C.int64_t
	n := int(C.trtContextTensorShape(c.h, cname, &dims[0], trtMaxDims))
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(dims[i])
	}
	return out
}

func (c *trtContext) TensorDataType(name string) DataType {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return DataType(C.trtContextTensorDataType(c.h, cname))
}

func (c *trtContext) TensorFormat(name string) TensorFormat {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	if C.trtContextTensorFormat(c.h, cname) == 0 {
		return FormatLinear
	}
	return FormatVectorized
}

func (c *trtContext) ComponentsPerElement(name string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int(C.trtContextComponentsPerElement(c.h, cname))
}

func (c *trtContext) SetInputTensorAddress(name string, p unsafe.Pointer) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	if C.trtSetInputTensorAddress(c.h, cname, p) == 0 {
		return fmt.Errorf("trtSetInputTensorAddress failed for %q", name)
	}
	return nil
}

func (c *trtContext) SetTensorAddress(name string, p unsafe.Pointer) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	if C.trtSetTensorAddress(c.h, cname, p) == 0 {
		return fmt.Errorf("trtSetTensorAddress failed for %q", name)
	}
	return nil
}

func (c *trtContext) Enqueue(s *device.Stream) error {
	if C.trtEnqueue(c.h, s.Handle()) == 0 {
		return fmt.Errorf("trtEnqueue rejected the invocation")
	}
	return nil
}

func (c *trtContext) Destroy() {
	if c.h != nil {
		C.trtDestroyContext(c.h)
		c.h = nil
	}
}
