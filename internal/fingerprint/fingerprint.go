// Package fingerprint computes progressive, block-keyed 128-bit content
// fingerprints for a file opened at a given offset.
//
// # Blocking scheme
//
// The file's content is partitioned into a sequence of non-overlapping
// regions of exponentially growing length, base size B (BlockSize):
//
//	Region 0:     bytes [0, B)                      (or the whole file if smaller)
//	Region i > 0: bytes [B·2^(i-1), B·2^i), clipped to end-of-file
//
// Each region is hashed independently with a freshly reset hasher, so two
// files compare equal under block-by-block fingerprint equality only after
// every byte of both has been hashed — no guaranteed false positive, modulo
// the 128-bit hash's collision probability (~2⁻⁶⁴ per pair).
//
// # Hasher
//
// The hash is github.com/zeebo/xxh3's 128-bit XXH3, seeded with a
// process-wide constant (DefaultSeed). It is a non-cryptographic hash: a
// deliberate choice, since cryptographic strength is only needed against
// adversarial input construction, an explicit non-goal of this design.
package fingerprint

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/zeebo/xxh3"

	"github.com/cclin0816/dedupefind/internal/types"
)

// DefaultSeed is the fixed nonzero 64-bit seed used unless a caller
// supplies its own via NewEngine.
const DefaultSeed uint64 = 0x9E3779B97F4A7C15

// DefaultBlockSize is the base hash-block size B (bytes).
const DefaultBlockSize int64 = 512

// DefaultReadBufferSize is the default I/O read-buffer size: 16 MiB, a
// power of two as required by ValidateBufferSize.
const DefaultReadBufferSize = 16 << 20

// Block is a single 128-bit fingerprint digest.
type Block struct {
	Hi, Lo uint64
}

// Compare returns -1, 0, or 1 according to lexicographic order on (Hi, Lo):
// high 64 bits first, then low 64 bits.
func (b Block) Compare(other Block) int {
	if b.Hi != other.Hi {
		if b.Hi < other.Hi {
			return -1
		}
		return 1
	}
	switch {
	case b.Lo < other.Lo:
		return -1
	case b.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

func blockFromUint128(u xxh3.Uint128) Block {
	return Block{Hi: u.Hi, Lo: u.Lo}
}

// ValidateBufferSize reports whether n is a valid read-buffer size: a power
// of two, at least 4 KiB.
func ValidateBufferSize(n int) bool {
	const minBufferSize = 4 << 10
	return n >= minBufferSize && n&(n-1) == 0
}

// Engine is a reusable, single-goroutine-owned hashing engine: one read
// buffer plus the ability to hash a byte range of an open file into a
// Block. It is never shared across goroutines — internal/engine allocates
// one Engine per size-run job.
type Engine struct {
	seed   uint64
	buf    []byte
	blockSize int64
}

// NewEngine allocates an Engine with the given read-buffer size. bufSize
// must satisfy ValidateBufferSize; blockSize is the base hash-block size B.
// Returns types.ErrResourceExhausted (wrapped) if bufSize or blockSize is
// invalid.
func NewEngine(seed uint64, bufSize int, blockSize int64) (*Engine, error) {
	if !ValidateBufferSize(bufSize) {
		return nil, fmt.Errorf("fingerprint: invalid read buffer size %d: %w", bufSize, types.ErrResourceExhausted)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("fingerprint: invalid block size %d: %w", blockSize, types.ErrResourceExhausted)
	}
	return &Engine{seed: seed, buf: make([]byte, bufSize), blockSize: blockSize}, nil
}

// MaxHash returns the number of fingerprint regions for a file of the given
// size: 1 when size <= BlockSize, else ceil(log2(ceil(size/BlockSize))) + 1.
func (e *Engine) MaxHash(size int64) int {
	return MaxHash(size, e.blockSize)
}

// MaxHash computes the region count for an arbitrary block size, so callers
// that only need the count (not hashing) need not construct an Engine.
func MaxHash(size, blockSize int64) int {
	if size <= blockSize {
		return 1
	}
	nBlocks := (size + blockSize - 1) / blockSize
	return bits.Len64(uint64(nBlocks-1)) + 1
}

// RegionBounds returns the half-open byte range [start, end) for region i of
// a file of the given size, per the exponential blocking scheme.
func RegionBounds(i int, size, blockSize int64) (start, end int64) {
	if i == 0 {
		start = 0
		end = blockSize
	} else {
		start = blockSize << (i - 1)
		end = blockSize << i
	}
	if end > size {
		end = size
	}
	if start > end {
		start = end
	}
	return start, end
}

// HashRegion hashes exactly [start, end) of r (which must already be
// positioned at start) and returns the resulting Block. It reads in
// e's buffer-sized chunks, reusing a freshly reset hasher for this region
// only. On short read (fewer than end-start bytes available) it returns
// types.ErrShortRead wrapped; on an underlying read error other than EOF it
// returns types.ErrHash wrapped.
func (e *Engine) HashRegion(r io.Reader, start, end int64) (Block, error) {
	want := end - start
	h := xxh3.NewSeed(e.seed)
	var got int64
	for got < want {
		n := want - got
		if n > int64(len(e.buf)) {
			n = int64(len(e.buf))
		}
		read, err := io.ReadFull(r, e.buf[:n])
		got += int64(read)
		if read > 0 {
			_, _ = h.Write(e.buf[:read])
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Block{}, fmt.Errorf("fingerprint: short read at offset %d (%d/%d bytes): %w", start+got, got, want, types.ErrShortRead)
			}
			return Block{}, fmt.Errorf("fingerprint: read failed at offset %d: %w: %w", start+got, types.ErrHash, err)
		}
	}
	return blockFromUint128(h.Sum128()), nil
}
