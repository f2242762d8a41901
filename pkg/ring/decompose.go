package ring

// Power2Round splits r (0 <= r < Q) into (r1, r0) such that
// r = r1*2^D + r0 mod Q and r0 is centered in (-2^(D-1), 2^(D-1)].
func Power2Round(r int32) (r1, r0 int32) {
	rPlus := mod(int64(r))
	r0 = rPlus % (1 << D)
	if r0 > (1 << (D - 1)) {
		r0 -= 1 << D
	}
	r1 = (rPlus - r0) >> D
	return r1, r0
}

// Power2RoundPoly applies Power2Round coefficientwise.
func Power2RoundPoly(p Poly) (t1, t0 Poly) {
	for i := range p {
		t1[i], t0[i] = Power2Round(p[i])
	}
	return t1, t0
}

// Decompose splits r into (r1, r0) with r = r1*(2*gamma2) + r0 mod Q and
// r0 in (-gamma2, gamma2], applying the Q-1 edge-case correction FIPS
// 204 requires.
func Decompose(r, gamma2 int32) (r1, r0 int32) {
	rPlus := mod(int64(r))
	r0 = rPlus % (2 * gamma2)
	if r0 > gamma2 {
		r0 -= 2 * gamma2
	}
	if rPlus-r0 == Q-1 {
		r1 = 0
		r0 = r0 - 1
	} else {
		r1 = (rPlus - r0) / (2 * gamma2)
	}
	return r1, r0
}

// HighBits returns Decompose(r, gamma2)'s r1 component.
func HighBits(r, gamma2 int32) int32 {
	r1, _ := Decompose(r, gamma2)
	return r1
}

// LowBits returns Decompose(r, gamma2)'s r0 component.
func LowBits(r, gamma2 int32) int32 {
	_, r0 := Decompose(r, gamma2)
	return r0
}

// HighBitsPoly applies HighBits coefficientwise.
func HighBitsPoly(p Poly, gamma2 int32) Poly {
	var out Poly
	for i := range p {
		out[i] = HighBits(p[i], gamma2)
	}
	return out
}

// LowBitsPoly applies LowBits coefficientwise.
func LowBitsPoly(p Poly, gamma2 int32) Poly {
	var out Poly
	for i := range p {
		out[i] = LowBits(p[i], gamma2)
	}
	return out
}

// MakeHint returns 1 if the combined low-order value z has centered
// magnitude large enough that recovering HighBits from r alone (without
// the hint) would land on the wrong side of a boundary, 0 otherwise. z
// is the full low-order decision value (e.g. LowBits(w-cs2)+ct0 in the
// baseline signer, or w0+f in the threshold combiner) — not a bare
// ct0/f term, which is bounded well inside (-gamma2,gamma2) by the
// signer's own rejection check and would never trip this test.
func MakeHint(z, r, gamma2 int32) int32 {
	if z <= gamma2 || z > Q-gamma2 || (z == Q-gamma2 && r == 0) {
		return 0
	}
	return 1
}

// MakeHintPoly builds the hint polynomial from a combined low-order
// decision value z (see MakeHint) and the corresponding HighBits value
// r (w1), per coefficient, and returns it along with its popcount.
func MakeHintPoly(z, r Poly, gamma2 int32) (h Poly, ones int) {
	for i := range h {
		hb := MakeHint(z[i], r[i], gamma2)
		h[i] = hb
		if hb == 1 {
			ones++
		}
	}
	return h, ones
}

// UseHint recovers the corrected HighBits of r given hint bit h, wrapped
// into the cyclic group Z_m with m = floor((Q-1)/(2*gamma2)).
func UseHint(h int32, r, gamma2 int32) int32 {
	m := (Q - 1) / (2 * gamma2)
	r1, r0 := Decompose(r, gamma2)
	if h == 0 {
		return r1
	}
	if r0 > 0 {
		return (r1 + 1) % m
	}
	return (r1 - 1 + m) % m
}

// UseHintPoly applies UseHint coefficientwise to recover w'1 from the
// aggregated hint and wApprox.
func UseHintPoly(h, r Poly, gamma2 int32) Poly {
	var out Poly
	for i := range out {
		out[i] = UseHint(h[i], r[i], gamma2)
	}
	return out
}

// HighBitsVec applies HighBitsPoly rowwise.
func HighBitsVec(v Vec, gamma2 int32) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = HighBitsPoly(v[i], gamma2)
	}
	return out
}

// LowBitsVec applies LowBitsPoly rowwise.
func LowBitsVec(v Vec, gamma2 int32) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = LowBitsPoly(v[i], gamma2)
	}
	return out
}

// MakeHintVec builds the hint vector rowwise from the combined
// low-order decision vector z and the HighBits vector r (see MakeHint),
// returning the total popcount across every row.
func MakeHintVec(z, r Vec, gamma2 int32) (h Vec, ones int) {
	h = make(Vec, len(z))
	for i := range z {
		var rowOnes int
		h[i], rowOnes = MakeHintPoly(z[i], r[i], gamma2)
		ones += rowOnes
	}
	return h, ones
}

// UseHintVec applies UseHintPoly rowwise.
func UseHintVec(h, r Vec, gamma2 int32) Vec {
	out := make(Vec, len(h))
	for i := range h {
		out[i] = UseHintPoly(h[i], r[i], gamma2)
	}
	return out
}

// Power2RoundVec applies Power2RoundPoly rowwise.
func Power2RoundVec(v Vec) (t1, t0 Vec) {
	t1 = make(Vec, len(v))
	t0 = make(Vec, len(v))
	for i := range v {
		t1[i], t0[i] = Power2RoundPoly(v[i])
	}
	return t1, t0
}
