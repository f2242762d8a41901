package encode

import (
	"errors"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// ErrHintDecode is returned for any hint-decoding violation: a
// decreasing cursor, non-increasing indices within a row, or a nonzero
// byte after the last cursor.
var ErrHintDecode = errors.New("encode: invalid hint encoding")

// HintCoder packs K polynomials of 0/1 coefficients into omega+K bytes:
// an ascending, per-row index list followed by K running cumulative
// counts.
type HintCoder struct {
	K     int
	Omega int
}

// Size returns the encoded hint length.
func (hc HintCoder) Size() int {
	return hc.Omega + hc.K
}

// Encode packs h, returning an error if more than Omega coefficients
// across all rows are set.
func (hc HintCoder) Encode(h ring.Vec) ([]byte, error) {
	buf := make([]byte, hc.Size())
	cursor := 0
	for row := 0; row < hc.K; row++ {
		for i := 0; i < ring.N; i++ {
			if h[row][i] != 0 {
				if cursor >= hc.Omega {
					return nil, errors.New("encode: too many hint bits")
				}
				buf[cursor] = byte(i)
				cursor++
			}
		}
		buf[hc.Omega+row] = byte(cursor)
	}
	return buf, nil
}

// Decode unpacks a hint, rejecting any structural violation.
func (hc HintCoder) Decode(buf []byte) (ring.Vec, error) {
	if len(buf) != hc.Size() {
		return nil, ErrHintDecode
	}
	h := make(ring.Vec, hc.K)
	cursorPrev := 0
	for row := 0; row < hc.K; row++ {
		cursorCur := int(buf[hc.Omega+row])
		if cursorCur < cursorPrev || cursorCur > hc.Omega {
			return nil, ErrHintDecode
		}
		prevIdx := -1
		for j := cursorPrev; j < cursorCur; j++ {
			idx := int(buf[j])
			if idx <= prevIdx {
				return nil, ErrHintDecode
			}
			h[row][idx] = 1
			prevIdx = idx
		}
		cursorPrev = cursorCur
	}
	for j := cursorPrev; j < hc.Omega; j++ {
		if buf[j] != 0 {
			return nil, ErrHintDecode
		}
	}
	return h, nil
}

// Popcount returns the number of set coefficients across all rows of h.
func Popcount(h ring.Vec) int {
	n := 0
	for _, p := range h {
		for _, c := range p {
			if c != 0 {
				n++
			}
		}
	}
	return n
}
