package infer

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Simulated plan file format, little-endian:
//
//	uint32 magic "VPLN"
//	uint32 version
//	uint32 tensor count
//	per tensor:
//	  uint32 name length, name bytes
//	  uint8  io mode, uint8 dtype, uint8 format, uint8 components per element
//	  uint8  ndims, int64 dims...
//
// A dim of -1 is a dynamic placeholder resolved at context creation.
const (
	PlanMagic   = 0x4E4C5056 // "VPLN"
	PlanVersion = 1
)

type PlanTensor struct {
	Name                 string
	Mode                 TensorIOMode
	DType                DataType
	Format               TensorFormat
	ComponentsPerElement uint8
	Dims                 []int64
}

type ErrInvalidMagic struct{ Magic uint32 }

func (e ErrInvalidMagic) Error() string {
	return fmt.Sprintf("plan: invalid magic 0x%08X", e.Magic)
}

type ErrUnsupportedVersion struct{ Version uint32 }

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("plan: unsupported version %d", e.Version)
}

// WritePlan serializes a simulated plan. Used by tests and scripts/gen_plan.
func WritePlan(w io.Writer, tensors []PlanTensor) error {
	hdr := []interface{}{uint32(PlanMagic), uint32(PlanVersion), uint32(len(tensors))}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, t := range tensors {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Name))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(t.Name)); err != nil {
			return err
		}
		fields := []interface{}{uint8(t.Mode), uint8(t.DType), uint8(t.Format), t.ComponentsPerElement, uint8(len(t.Dims))}
		for _, v := range fields {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		for _, d := range t.Dims {
			if err := binary.Write(w, binary.LittleEndian, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func parsePlan(data []byte) ([]PlanTensor, error) {
	if len(data) < 12 {
		return nil, io.ErrUnexpectedEOF
	}

	offset := uint64(0)
	magic := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if magic != PlanMagic {
		return nil, ErrInvalidMagic{Magic: magic}
	}

	version := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if version != PlanVersion {
		return nil, ErrUnsupportedVersion{Version: version}
	}

	count := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	// Cheapest possible tensor record is 9 bytes (empty name, no dims); a
	// declared count the remaining bytes cannot hold is corrupt, and must
	// not size an allocation.
	if uint64(count)*9 > uint64(len(data))-offset {
		return nil, io.ErrUnexpectedEOF
	}

	tensors := make([]PlanTensor, 0, count)
	for i := uint32(0); i < count; i++ {
		if uint64(len(data)) < offset+4 {
			return nil, io.ErrUnexpectedEOF
		}
		nameLen := uint64(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if uint64(len(data)) < offset+nameLen+5 {
			return nil, io.ErrUnexpectedEOF
		}
		t := PlanTensor{Name: string(data[offset : offset+nameLen])}
		offset += nameLen

		t.Mode = TensorIOMode(data[offset])
		t.DType = DataType(data[offset+1])
		t.Format = TensorFormat(data[offset+2])
		t.ComponentsPerElement = data[offset+3]
		ndims := uint64(data[offset+4])
		offset += 5

		if uint64(len(data)) < offset+ndims*8 {
			return nil, io.ErrUnexpectedEOF
		}
		t.Dims = make([]int64, ndims)
		for d := uint64(0); d < ndims; d++ {
			t.Dims[d] = int64(binary.LittleEndian.Uint64(data[offset:]))
			offset += 8
		}
		tensors = append(tensors, t)
	}
	return tensors, nil
}
