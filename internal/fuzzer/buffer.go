package fuzzer

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/23skdu/longbow-volley/internal/device"
)

// Buffer owns one page-locked host memory region. The size is fixed at
// construction and the address never changes for the buffer's lifetime, which
// the captured graphs depend on. Close releases exactly once; a failed
// release leaves the process in an unknown resource state and aborts.
type Buffer struct {
	api  device.API
	ptr  unsafe.Pointer
	size int64
}

func NewBuffer(api device.API, size int64) (*Buffer, error) {
	p, err := api.MallocHost(size)
	if err != nil {
		return nil, errors.Wrapf(err, "pinned alloc of %d bytes", size)
	}
	return &Buffer{api: api, ptr: p, size: size}, nil
}

func (b *Buffer) Data() unsafe.Pointer { return b.ptr }

func (b *Buffer) Size() int64 { return b.size }

func (b *Buffer) bytes() []byte {
	return unsafe.Slice((*byte)(b.ptr), b.size)
}

// Randomize fills the whole region with pseudo-random bits, one generator
// word (8 bytes) at a time. A sub-word tail takes its bytes from one extra
// draw; nothing outside the region is touched.
func (b *Buffer) Randomize(rng *rand.Rand) {
	buf := b.bytes()
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if i < len(buf) {
		var w [8]byte
		binary.LittleEndian.PutUint64(w[:], rng.Uint64())
		copy(buf[i:], w[:len(buf)-i])
	}
}

// Close releases the region. Safe on a nil or already-closed buffer.
func (b *Buffer) Close() {
	if b == nil || b.ptr == nil {
		return
	}
	if err := b.api.FreeHost(b.ptr); err != nil {
		panic(fmt.Sprintf("fuzzer: pinned free: %v", err))
	}
	b.ptr = nil
	b.size = 0
}
