package main

import (
	"os"

	"github.com/23skdu/longbow-volley/internal/infer"
)

// Generates the two trivial identity plans the fuzzer loads by default.
func main() {
	tensors := []infer.PlanTensor{
		{
			Name:  "input",
			Mode:  infer.IOInput,
			DType: infer.Float,
			Dims:  []int64{1, 3, 224, 224},
		},
		{
			Name:  "output",
			Mode:  infer.IOOutput,
			DType: infer.Float,
			Dims:  []int64{1, 3, 224, 224},
		},
	}

	for _, path := range []string{"model0.plan", "model1.plan"} {
		f, err := os.Create(path)
		if err != nil {
			panic(err)
		}
		if err := infer.WritePlan(f, tensors); err != nil {
			panic(err)
		}
		f.Close()
	}
}
