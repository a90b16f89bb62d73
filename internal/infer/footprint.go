package infer

import (
	"github.com/pkg/errors"
)

// Footprint computes the exact byte size of one tensor under its memory
// layout. Linear tensors are the product of all extents times the element
// width. Vectorized tensors first pad the packed dimension's extent up to the
// next multiple of components-per-element; an extent already on a multiple is
// left unchanged.
func Footprint(desc TensorDescriptor) (int64, error) {
	elem, err := desc.DType.Size()
	if err != nil {
		return 0, errors.Wrapf(err, "tensor %q", desc.Name)
	}
	if len(desc.Dims) == 0 {
		return 0, errors.Errorf("tensor %q has no shape", desc.Name)
	}

	dims := make([]int64, len(desc.Dims))
	copy(dims, desc.Dims)

	if desc.Format != FormatLinear {
		cpe := int64(desc.ComponentsPerElement)
		if cpe <= 0 {
			return 0, errors.Errorf("tensor %q: vectorized layout with %d components per element", desc.Name, cpe)
		}
		// The runtime reports the packed axis through the same property as
		// the component count; clamp to the last axis when it lands past the
		// end of the shape.
		axis := int(cpe)
		if axis >= len(dims) {
			axis = len(dims) - 1
		}
		if rem := dims[axis] % cpe; rem != 0 {
			dims[axis] += cpe - rem
		}
	}

	size := int64(1)
	for _, d := range dims {
		if d <= 0 {
			return 0, errors.Errorf("tensor %q: unresolved dimension %d", desc.Name, d)
		}
		size *= d
	}
	return size * elem, nil
}
