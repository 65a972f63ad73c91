/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto"
	"crypto/dsa"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// digestInfoPrefix renders the ASN.1 DigestInfo algorithm-identifier prefix
// prepended to a raw digest before PKCS#1 v1.5 type-1 padding (§4.12).
// Built by hand from the literal OID byte tables rather than delegated to
// a library that embeds this invisibly, since §4.12 exists precisely to
// pin these bytes down.
func digestInfoPrefix(hash crypto.Hash) ([]byte, error) {
	switch hash {
	case crypto.SHA1:
		oid := []byte{0x2b, 0x0e, 0x03, 0x02, 0x1a}
		return buildDigestInfoPrefix(oid, 20), nil
	case crypto.SHA256:
		oid := []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01}
		return buildDigestInfoPrefix(oid, 32), nil
	case crypto.SHA512:
		oid := []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03}
		return buildDigestInfoPrefix(oid, 64), nil
	default:
		return nil, &UnsupportedAlgorithmError{Context: "no DigestInfo prefix defined for this hash (e.g. SHA-384 is out of scope for the RSA padding path)"}
	}
}

// buildDigestInfoPrefix lays out:
//
//	30, 8+len(oid)+digestLen, 30, len(oid)+4, 06, len(oid), <oid>, 05 00, 04, digestLen
func buildDigestInfoPrefix(oid []byte, digestLen int) []byte {
	out := []byte{
		0x30, byte(8 + len(oid) + digestLen),
		0x30, byte(len(oid) + 4),
		0x06, byte(len(oid)),
	}
	out = append(out, oid...)
	out = append(out, 0x05, 0x00, 0x04, byte(digestLen))
	return out
}

// parseRSAPublicKey implements the RFC 3110 RSA key-field layout: a
// one-octet exponent length L (or, if L==0, a two-octet length), followed
// by the L-byte exponent, with the remainder as the modulus.
func parseRSAPublicKey(keyField []byte) (*rsa.PublicKey, error) {
	if len(keyField) < 1 {
		return nil, fmt.Errorf("rsa key field too short")
	}
	var expLen int
	var off int
	if keyField[0] == 0 {
		if len(keyField) < 3 {
			return nil, fmt.Errorf("rsa key field: truncated extended exponent length")
		}
		expLen = int(keyField[1])<<8 | int(keyField[2])
		off = 3
	} else {
		expLen = int(keyField[0])
		off = 1
	}
	if off+expLen > len(keyField) {
		return nil, fmt.Errorf("rsa key field: exponent length overruns key field")
	}
	e := new(big.Int).SetBytes(keyField[off : off+expLen])
	n := new(big.Int).SetBytes(keyField[off+expLen:])
	if e.Sign() == 0 || n.Sign() == 0 {
		return nil, fmt.Errorf("rsa key field: zero exponent or modulus")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// parseDSAPublicKey implements the RFC 2536 DSA key-field layout: one octet
// T, then q (20B), p (64+8T B), g (64+8T B), y (64+8T B).
func parseDSAPublicKey(keyField []byte) (*dsa.PublicKey, error) {
	if len(keyField) < 1 {
		return nil, fmt.Errorf("dsa key field too short")
	}
	t := int(keyField[0])
	qLen := 20
	pLen := 64 + 8*t
	want := 1 + qLen + 3*pLen
	if len(keyField) != want {
		return nil, fmt.Errorf("dsa key field: expected %d bytes for T=%d, got %d", want, t, len(keyField))
	}
	off := 1
	q := new(big.Int).SetBytes(keyField[off : off+qLen])
	off += qLen
	p := new(big.Int).SetBytes(keyField[off : off+pLen])
	off += pLen
	g := new(big.Int).SetBytes(keyField[off : off+pLen])
	off += pLen
	y := new(big.Int).SetBytes(keyField[off : off+pLen])

	return &dsa.PublicKey{
		Parameters: dsa.Parameters{P: p, Q: q, G: g},
		Y:          y,
	}, nil
}

// parseDSASignature implements the RFC 2536 signature layout: one octet T
// followed by r (20B) and s (20B).
func parseDSASignature(sig []byte) (r, s *big.Int, err error) {
	if len(sig) != 41 {
		return nil, nil, fmt.Errorf("dsa signature: expected 41 bytes (1+20+20), got %d", len(sig))
	}
	r = new(big.Int).SetBytes(sig[1:21])
	s = new(big.Int).SetBytes(sig[21:41])
	return r, s, nil
}

// rsaModulusLen returns the byte length of an RSA modulus.
func rsaModulusLen(pub *rsa.PublicKey) int {
	return (pub.N.BitLen() + 7) / 8
}

// pkcs1v15Encode builds the PKCS#1 v1.5 type-1 encoded message
// `0x00 0x01 0xFF...0xFF 0x00 || DigestInfo || digest`, padded to k octets,
// per §4.11 step 5 / RFC 3447.
func pkcs1v15Encode(digest []byte, hash crypto.Hash, k int) ([]byte, error) {
	prefix, err := digestInfoPrefix(hash)
	if err != nil {
		return nil, err
	}
	tLen := len(prefix) + len(digest)
	if k < tLen+11 {
		return nil, fmt.Errorf("pkcs1v15: modulus too small for digest")
	}
	padLen := k - tLen - 3
	out := make([]byte, 0, k)
	out = append(out, 0x00, 0x01)
	for i := 0; i < padLen; i++ {
		out = append(out, 0xFF)
	}
	out = append(out, 0x00)
	out = append(out, prefix...)
	out = append(out, digest...)
	return out, nil
}

// rsaVerify reconstructs the PKCS#1 v1.5 encoded message from sig^e mod n
// and compares it byte-for-byte against the expected encoding of digest
// (§4.11 step 5).
func rsaVerify(pub *rsa.PublicKey, digest []byte, hash crypto.Hash, sig []byte) error {
	k := rsaModulusLen(pub)
	if len(sig) != k {
		return newValidationFailure("rsa signature length does not match modulus size")
	}

	s := new(big.Int).SetBytes(sig)
	e := big.NewInt(int64(pub.E))
	m := new(big.Int).Exp(s, e, pub.N)

	got := m.Bytes()
	if len(got) < k {
		padded := make([]byte, k)
		copy(padded[k-len(got):], got)
		got = padded
	}

	want, err := pkcs1v15Encode(digest, hash, k)
	if err != nil {
		return err
	}

	if !constantTimeEqual(got, want) {
		return newValidationFailure("rsa verify failure")
	}
	return nil
}

// rsaSign applies the private key's modular exponentiation to the PKCS#1
// v1.5 encoded digest: sig = (0x00 0x01 0xFF...0x00 || DigestInfo ||
// digest)^d mod n. The crypto adapter is handed the raw digest bytes and
// the algorithm's hash identifier, never a hash context, sidestepping the
// reference implementation's hash-context/raw-bytes confusion (§9).
func rsaSign(priv *rsa.PrivateKey, digest []byte, hash crypto.Hash) ([]byte, error) {
	k := rsaModulusLen(&priv.PublicKey)
	em, err := pkcs1v15Encode(digest, hash, k)
	if err != nil {
		return nil, err
	}

	m := new(big.Int).SetBytes(em)
	d := priv.D
	n := priv.N
	c := new(big.Int).Exp(m, d, n)

	sig := c.Bytes()
	if len(sig) < k {
		padded := make([]byte, k)
		copy(padded[k-len(sig):], sig)
		sig = padded
	}
	return sig, nil
}

// dsaVerify implements the RFC 2536 / FIPS 186 DSA verify equations:
// w = s^-1 mod q; u1 = (H*w) mod q; u2 = (r*w) mod q;
// v = ((g^u1 * y^u2) mod p) mod q; valid iff v == r.
func dsaVerify(pub *dsa.PublicKey, digest []byte, r, s *big.Int) error {
	q := pub.Q
	if r.Sign() <= 0 || r.Cmp(q) >= 0 || s.Sign() <= 0 || s.Cmp(q) >= 0 {
		return newValidationFailure("dsa verify failure: r or s out of range")
	}

	w := new(big.Int).ModInverse(s, q)
	if w == nil {
		return newValidationFailure("dsa verify failure: s has no modular inverse")
	}

	// DSA hashes are truncated to the bit length of q (160 bits for the
	// SHA1-based NSEC3-capable algorithms in scope here).
	h := new(big.Int).SetBytes(digest)
	if qBits := q.BitLen(); digest != nil && len(digest)*8 > qBits {
		h.Rsh(h, uint(len(digest)*8-qBits))
	}

	u1 := new(big.Int).Mul(h, w)
	u1.Mod(u1, q)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, q)

	g1 := new(big.Int).Exp(pub.G, u1, pub.P)
	g2 := new(big.Int).Exp(pub.Y, u2, pub.P)
	v := new(big.Int).Mul(g1, g2)
	v.Mod(v, pub.P)
	v.Mod(v, q)

	if v.Cmp(r) != 0 {
		return newValidationFailure("dsa verify failure: signature does not match")
	}
	return nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
