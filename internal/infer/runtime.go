package infer

import (
	"unsafe"

	"github.com/23skdu/longbow-volley/internal/device"
)

// Runtime deserializes compiled plan bytes into a live Engine.
type Runtime interface {
	Deserialize(data []byte) (Engine, error)
}

// Engine is an immutable deserialized plan. It enumerates the tensors it
// declares and creates execution contexts.
type Engine interface {
	NbIOTensors() int
	IOTensorName(idx int) string
	TensorIOMode(name string) TensorIOMode
	CreateExecutionContext() (ExecutionContext, error)
	Destroy()
}

// ExecutionContext is one invocation handle created from an Engine. It owns
// no tensor memory; it holds a binding table of externally-owned addresses.
// Every declared tensor must be bound before Enqueue or the enqueue fails.
type ExecutionContext interface {
	TensorShape(name string) []int64
	TensorDataType(name string) DataType
	TensorFormat(name string) TensorFormat
	ComponentsPerElement(name string) int

	SetInputTensorAddress(name string, p unsafe.Pointer) error
	SetTensorAddress(name string, p unsafe.Pointer) error

	// Enqueue submits exactly one inference pass on the stream using the
	// currently bound addresses. Asynchronous; synchronize the stream to
	// observe completion.
	Enqueue(s *device.Stream) error

	Destroy()
}

// Describe gathers the metadata for one named tensor. Shapes returned by the
// context already have dynamic dimensions resolved.
func Describe(eng Engine, ctx ExecutionContext, name string) TensorDescriptor {
	return TensorDescriptor{
		Name:                 name,
		Dims:                 ctx.TensorShape(name),
		DType:                ctx.TensorDataType(name),
		Format:               ctx.TensorFormat(name),
		Mode:                 eng.TensorIOMode(name),
		ComponentsPerElement: ctx.ComponentsPerElement(name),
	}
}
