// Package poolbuf provides buffer pools: a length-keyed activation array
// pool, and typed-array pools for packed-slab columns, keyed by (kind,
// length). A Network's slab rebuild draws its weights, gain, from, to and
// flags columns from a SlabPool; its out_start/out_order adjacency columns
// are allocated directly, and the neat package does not use ActivationPool.
//
// Both pools assume single-threaded-per-Network use: a buffer handed out
// by Get must be returned via Put before the owning Network is touched
// from another goroutine, and nothing here synchronizes concurrent
// Get/Put calls against the same key.
package poolbuf

// ActivationPool hands out []float64 scratch buffers of a requested
// length, reusing released buffers of the same length instead of
// allocating fresh ones on every forward pass.
type ActivationPool struct {
	byLen map[int][][]float64
}

// NewActivationPool constructs an empty pool.
func NewActivationPool() *ActivationPool {
	return &ActivationPool{byLen: make(map[int][][]float64)}
}

// Get returns a zeroed []float64 of exactly n elements, reusing a
// previously Put buffer of that length when one is available.
func (p *ActivationPool) Get(n int) []float64 {
	bucket := p.byLen[n]
	if len(bucket) == 0 {
		return make([]float64, n)
	}
	buf := bucket[len(bucket)-1]
	p.byLen[n] = bucket[:len(bucket)-1]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Put releases buf back to the pool for a future Get of the same length.
func (p *ActivationPool) Put(buf []float64) {
	n := len(buf)
	p.byLen[n] = append(p.byLen[n], buf)
}

// Kind names which slab column a typed-array pool entry belongs to; the
// pool never hands a buffer acquired for one kind back out for another,
// even when the element width matches, since mixing up e.g. a weights
// buffer with a from buffer would silently corrupt the slab.
type Kind uint8

const (
	KindWeights Kind = iota
	KindGain
	KindFrom
	KindTo
	KindFlags
	KindOutStart
	KindOutOrder
)

// maxPerKey caps how many released buffers of one (kind, length) key are
// retained; beyond that, further Put calls are simply dropped rather than
// grown without bound.
const maxPerKey = 4

type key struct {
	kind   Kind
	length int
}

// SlabPool pools the backing slices a Network's packed-slab rebuild
// acquires for its weights/gain/from/to/flags columns. Float64, Uint32, and Uint8 columns are pooled independently
// since a buffer of one element type can never stand in for another.
type SlabPool struct {
	f64 map[key][][]float64
	u32 map[key][][]uint32
	u8  map[key][][]uint8
}

// NewSlabPool constructs an empty typed-array pool.
func NewSlabPool() *SlabPool {
	return &SlabPool{
		f64: make(map[key][][]float64),
		u32: make(map[key][][]uint32),
		u8:  make(map[key][][]uint8),
	}
}

// GetFloat64 returns a zeroed []float64 of length n for kind, reusing a
// released buffer under that exact (kind, length) key when available.
func (p *SlabPool) GetFloat64(kind Kind, n int) []float64 {
	k := key{kind, n}
	bucket := p.f64[k]
	if len(bucket) == 0 {
		return make([]float64, n)
	}
	buf := bucket[len(bucket)-1]
	p.f64[k] = bucket[:len(bucket)-1]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutFloat64 releases buf back to the pool under (kind, len(buf)).
func (p *SlabPool) PutFloat64(kind Kind, buf []float64) {
	k := key{kind, len(buf)}
	if bucket := p.f64[k]; len(bucket) < maxPerKey {
		p.f64[k] = append(bucket, buf)
	}
}

// GetUint32 returns a zeroed []uint32 of length n for kind.
func (p *SlabPool) GetUint32(kind Kind, n int) []uint32 {
	k := key{kind, n}
	bucket := p.u32[k]
	if len(bucket) == 0 {
		return make([]uint32, n)
	}
	buf := bucket[len(bucket)-1]
	p.u32[k] = bucket[:len(bucket)-1]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutUint32 releases buf back to the pool under (kind, len(buf)).
func (p *SlabPool) PutUint32(kind Kind, buf []uint32) {
	k := key{kind, len(buf)}
	if bucket := p.u32[k]; len(bucket) < maxPerKey {
		p.u32[k] = append(bucket, buf)
	}
}

// GetUint8 returns a zeroed []uint8 of length n for kind.
func (p *SlabPool) GetUint8(kind Kind, n int) []uint8 {
	k := key{kind, n}
	bucket := p.u8[k]
	if len(bucket) == 0 {
		return make([]uint8, n)
	}
	buf := bucket[len(bucket)-1]
	p.u8[k] = bucket[:len(bucket)-1]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutUint8 releases buf back to the pool under (kind, len(buf)).
func (p *SlabPool) PutUint8(kind Kind, buf []uint8) {
	k := key{kind, len(buf)}
	if bucket := p.u8[k]; len(bucket) < maxPerKey {
		p.u8[k] = append(bucket, buf)
	}
}
