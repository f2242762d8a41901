package encode

import (
	"errors"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// PublicKey packs rho||vecCoder(T1,K).
func PublicKey(rho [32]byte, t1 ring.Vec) []byte {
	out := make([]byte, 0, 32+T1Coder().Size()*len(t1))
	out = append(out, rho[:]...)
	out = append(out, T1Coder().EncodeVec(t1)...)
	return out
}

// DecodePublicKey reverses PublicKey for a given k.
func DecodePublicKey(buf []byte, k int) (rho [32]byte, t1 ring.Vec, err error) {
	want := 32 + T1Coder().Size()*k
	if len(buf) != want {
		return rho, nil, errors.New("encode: wrong public key length")
	}
	copy(rho[:], buf[:32])
	t1, err = T1Coder().DecodeVec(buf[32:], k)
	return rho, t1, err
}

// SecretKey packs rho||K'||tr||vecCoder(ETA,L,s1)||vecCoder(ETA,K,s2)||vecCoder(T0,K,t0).
func SecretKey(rho, kprime [32]byte, tr [64]byte, eta int, s1, s2, t0 ring.Vec) []byte {
	etaCoder := EtaCoder(eta)
	t0Coder := T0Coder()
	out := make([]byte, 0, 128+etaCoder.Size()*(len(s1)+len(s2))+t0Coder.Size()*len(t0))
	out = append(out, rho[:]...)
	out = append(out, kprime[:]...)
	out = append(out, tr[:]...)
	out = append(out, etaCoder.EncodeVec(s1)...)
	out = append(out, etaCoder.EncodeVec(s2)...)
	out = append(out, t0Coder.EncodeVec(t0)...)
	return out
}

// DecodeSecretKey reverses SecretKey for given (k,l,eta).
func DecodeSecretKey(buf []byte, k, l, eta int) (rho, kprime [32]byte, tr [64]byte, s1, s2, t0 ring.Vec, err error) {
	etaCoder := EtaCoder(eta)
	t0Coder := T0Coder()
	want := 128 + etaCoder.Size()*(l+k) + t0Coder.Size()*k
	if len(buf) != want {
		return rho, kprime, tr, nil, nil, nil, errors.New("encode: wrong secret key length")
	}
	copy(rho[:], buf[:32])
	copy(kprime[:], buf[32:64])
	copy(tr[:], buf[64:128])
	off := 128
	s1, err = etaCoder.DecodeVec(buf[off:], l)
	if err != nil {
		return rho, kprime, tr, nil, nil, nil, err
	}
	off += etaCoder.Size() * l
	s2, err = etaCoder.DecodeVec(buf[off:], k)
	if err != nil {
		return rho, kprime, tr, nil, nil, nil, err
	}
	off += etaCoder.Size() * k
	t0, err = t0Coder.DecodeVec(buf[off:], k)
	return rho, kprime, tr, s1, s2, t0, err
}

// Signature packs cTilde||vecCoder(Z,L)||hintCoder(K,omega).
func Signature(cTilde []byte, gamma1 int32, z ring.Vec, h ring.Vec, k, omega int) ([]byte, error) {
	zCoder := ZCoder(gamma1)
	hc := HintCoder{K: k, Omega: omega}
	hBytes, err := hc.Encode(h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(cTilde)+zCoder.Size()*len(z)+hc.Size())
	out = append(out, cTilde...)
	out = append(out, zCoder.EncodeVec(z)...)
	out = append(out, hBytes...)
	return out, nil
}

// DecodeSignature reverses Signature for given (gamma1,k,l,omega,cTildeBytes).
func DecodeSignature(buf []byte, gamma1 int32, k, l, omega, cTildeBytes int) (cTilde []byte, z ring.Vec, h ring.Vec, err error) {
	zCoder := ZCoder(gamma1)
	hc := HintCoder{K: k, Omega: omega}
	want := cTildeBytes + zCoder.Size()*l + hc.Size()
	if len(buf) != want {
		return nil, nil, nil, errors.New("encode: wrong signature length")
	}
	cTilde = append([]byte(nil), buf[:cTildeBytes]...)
	off := cTildeBytes
	z, err = zCoder.DecodeVec(buf[off:], l)
	if err != nil {
		return nil, nil, nil, err
	}
	off += zCoder.Size() * l
	h, err = hc.Decode(buf[off:])
	return cTilde, z, h, err
}
