package infer

import (
	"testing"
)

func TestFootprintLinear(t *testing.T) {
	tests := []struct {
		name string
		desc TensorDescriptor
		want int64
	}{
		{
			name: "imagenet float32",
			desc: TensorDescriptor{Name: "input", Dims: []int64{1, 3, 224, 224}, DType: Float, Format: FormatLinear},
			want: 1 * 3 * 224 * 224 * 4,
		},
		{
			name: "half",
			desc: TensorDescriptor{Name: "h", Dims: []int64{2, 8}, DType: Half, Format: FormatLinear},
			want: 2 * 8 * 2,
		},
		{
			name: "int8 scalar-ish",
			desc: TensorDescriptor{Name: "q", Dims: []int64{7}, DType: Int8, Format: FormatLinear},
			want: 7,
		},
		{
			name: "bool",
			desc: TensorDescriptor{Name: "mask", Dims: []int64{4, 4}, DType: Bool, Format: FormatLinear},
			want: 16,
		},
		{
			name: "fp8",
			desc: TensorDescriptor{Name: "e", Dims: []int64{10, 10}, DType: FP8, Format: FormatLinear},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Footprint(tt.desc)
			if err != nil {
				t.Fatalf("Footprint: %v", err)
			}
			if got != tt.want {
				t.Errorf("Footprint = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFootprintDeterministic(t *testing.T) {
	desc := TensorDescriptor{
		Name: "x", Dims: []int64{1, 3, 56, 56}, DType: Half,
		Format: FormatVectorized, ComponentsPerElement: 2,
	}
	first, err := Footprint(desc)
	if err != nil {
		t.Fatalf("Footprint: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := Footprint(desc)
		if err != nil {
			t.Fatalf("Footprint: %v", err)
		}
		if got != first {
			t.Fatalf("Footprint not deterministic: %d then %d", first, got)
		}
	}
	// The input descriptor must not be mutated by the padding pass.
	if desc.Dims[2] != 56 {
		t.Errorf("Footprint mutated caller dims: %v", desc.Dims)
	}
}

func TestFootprintVectorizedPadding(t *testing.T) {
	// Components-per-element 1 designates axis 1; extent 3 pads nowhere
	// since everything is a multiple of 1.
	desc := TensorDescriptor{
		Name: "v", Dims: []int64{1, 3, 8, 8}, DType: Float,
		Format: FormatVectorized, ComponentsPerElement: 1,
	}
	got, err := Footprint(desc)
	if err != nil {
		t.Fatalf("Footprint: %v", err)
	}
	if want := int64(1*3*8*8) * 4; got != want {
		t.Errorf("cpe=1 Footprint = %d, want %d", got, want)
	}

	// Components-per-element 4 designates axis 4, clamped to the last axis;
	// extent 3 there pads up to 4.
	desc = TensorDescriptor{
		Name: "v", Dims: []int64{1, 8, 8, 3}, DType: Float,
		Format: FormatVectorized, ComponentsPerElement: 4,
	}
	got, err = Footprint(desc)
	if err != nil {
		t.Fatalf("Footprint: %v", err)
	}
	if want := int64(1*8*8*4) * 4; got != want {
		t.Errorf("padded Footprint = %d, want %d", got, want)
	}
	unpadded := int64(1*8*8*3) * 4
	if got == unpadded {
		t.Errorf("Footprint did not pad: got the unpadded size %d", unpadded)
	}

	// An extent already on a multiple is left unchanged.
	desc.Dims = []int64{1, 8, 8, 8}
	got, err = Footprint(desc)
	if err != nil {
		t.Fatalf("Footprint: %v", err)
	}
	if want := int64(1*8*8*8) * 4; got != want {
		t.Errorf("aligned Footprint = %d, want %d", got, want)
	}
}

func TestFootprintErrors(t *testing.T) {
	tests := []struct {
		name string
		desc TensorDescriptor
	}{
		{
			name: "unknown dtype",
			desc: TensorDescriptor{Name: "x", Dims: []int64{1}, DType: DataType(0xFF), Format: FormatLinear},
		},
		{
			name: "empty shape",
			desc: TensorDescriptor{Name: "x", DType: Float, Format: FormatLinear},
		},
		{
			name: "unresolved dynamic dim",
			desc: TensorDescriptor{Name: "x", Dims: []int64{-1, 3}, DType: Float, Format: FormatLinear},
		},
		{
			name: "vectorized without components",
			desc: TensorDescriptor{Name: "x", Dims: []int64{1, 3}, DType: Float, Format: FormatVectorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Footprint(tt.desc)
			if err == nil {
				t.Fatalf("Footprint = %d, want error", got)
			}
			if got != 0 {
				t.Errorf("Footprint returned %d alongside error", got)
			}
		})
	}
}

func TestDataTypeSizes(t *testing.T) {
	sizes := map[DataType]int64{
		Float: 4, Half: 2, Int8: 1, Int32: 4, Bool: 1, UInt8: 1, FP8: 1,
	}
	for dt, want := range sizes {
		got, err := dt.Size()
		if err != nil {
			t.Errorf("%v.Size(): %v", dt, err)
			continue
		}
		if got != want {
			t.Errorf("%v.Size() = %d, want %d", dt, got, want)
		}
	}

	if _, err := DataType(42).Size(); err == nil {
		t.Error("expected error for unknown data type")
	}
}
