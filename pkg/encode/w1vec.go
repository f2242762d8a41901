package encode

import "github.com/btc-vision/threshold-mldsa/pkg/ring"

// EncodeW1Vec packs a HighBits vector with the W1 coder; this is the
// byte string hashed (alongside mu) to derive the challenge seed
// c-tilde in both the baseline and threshold signers.
func EncodeW1Vec(w1 ring.Vec, gamma2 int32) []byte {
	return W1Coder(gamma2).EncodeVec(w1)
}
