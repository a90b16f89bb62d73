package infer

import (
	"github.com/pkg/errors"
)

// DataType identifies the element type of a plan tensor.
type DataType uint8

const (
	Float DataType = iota
	Half
	Int8
	Int32
	Bool
	UInt8
	FP8
)

// Size returns the byte width of one element. An unrecognized data type is
// a configuration error, never a default width.
func (d DataType) Size() (int64, error) {
	switch d {
	case Float, Int32:
		return 4, nil
	case Half:
		return 2, nil
	case Int8, Bool, UInt8, FP8:
		return 1, nil
	default:
		return 0, errors.Errorf("unsupported data type %d", d)
	}
}

func (d DataType) String() string {
	switch d {
	case Float:
		return "float32"
	case Half:
		return "float16"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	case UInt8:
		return "uint8"
	case FP8:
		return "fp8"
	default:
		return "unknown"
	}
}

// TensorFormat is the memory layout of a tensor.
type TensorFormat uint8

const (
	FormatLinear TensorFormat = iota
	FormatVectorized
)

// TensorIOMode tells whether a tensor is fed into or produced by the engine.
type TensorIOMode uint8

const (
	IONone TensorIOMode = iota
	IOInput
	IOOutput
)

func (m TensorIOMode) String() string {
	switch m {
	case IOInput:
		return "input"
	case IOOutput:
		return "output"
	default:
		return "none"
	}
}

// TensorDescriptor is the per-tensor metadata gathered from a live context.
// It only exists during setup; once buffers are sized and bound it is not
// kept around.
type TensorDescriptor struct {
	Name                 string
	Dims                 []int64
	DType                DataType
	Format               TensorFormat
	Mode                 TensorIOMode
	ComponentsPerElement int
}
