package upload

import (
	"io"
	"math"
	"sync/atomic"
)

// progressReader counts bytes read through it.
type progressReader struct {
	r     io.Reader
	total int64
	n     atomic.Int64
}

func newProgressReader(r io.Reader, total int64) *progressReader {
	return &progressReader{r: r, total: total}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.n.Add(int64(n))
	}
	return n, err
}

// Transferred returns the number of bytes read so far.
func (p *progressReader) Transferred() int64 {
	return p.n.Load()
}

// Percent returns the rounded completion percentage, capped at 100.
// It reports false when the total size is unknown.
func (p *progressReader) Percent() (int, bool) {
	if p.total <= 0 {
		return 0, false
	}
	pct := int(math.Round(float64(p.n.Load()) * 100 / float64(p.total)))
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
