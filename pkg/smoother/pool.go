package smoother

import (
	"sync"

	"seismicsmooth/internal/models"
)

// ScratchPool provides sync.Pool-based reuse of scratch fields so repeated
// Apply calls inside a CG loop do not allocate.
type ScratchPool struct {
	pool sync.Pool
}

// NewScratchPool returns a ScratchPool ready for use.
func NewScratchPool() *ScratchPool {
	return &ScratchPool{
		pool: sync.Pool{
			New: func() any {
				return &models.Field{}
			},
		},
	}
}

// Get returns a zeroed field with the requested dimensions. Callers must
// return it via Put when done.
func (p *ScratchPool) Get(n1, n2, n3 int) *models.Field {
	f := p.pool.Get().(*models.Field)
	n := n1 * n2 * n3
	if cap(f.Data) >= n {
		f.Data = f.Data[:n]
		for i := range f.Data {
			f.Data[i] = 0
		}
	} else {
		f.Data = make([]float64, n)
	}
	f.N1, f.N2, f.N3 = n1, n2, n3
	return f
}

// Put returns a field to the pool. The caller must not use it afterwards.
func (p *ScratchPool) Put(f *models.Field) {
	if f == nil {
		return
	}
	p.pool.Put(f)
}
