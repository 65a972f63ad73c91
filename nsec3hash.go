/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"sort"
	"strings"
)

const base32HexAlphabet = "0123456789abcdefghijklmnopqrstuv"

var base32HexEncoding = base32.NewEncoding(strings.ToUpper(base32HexAlphabet)).WithPadding(base32.NoPadding)

// base32HexEncode renders b using the RFC 5155 base32-hex alphabet
// (lower-case, as NSEC3 owner-name labels require).
func base32HexEncode(b []byte) string {
	return strings.ToLower(base32HexEncoding.EncodeToString(b))
}

// base32HexDecode is the inverse of base32HexEncode; miekg/dns's NSEC3
// NextDomain field is the lower-case base32-hex text form, so decoding it
// back to raw hash bytes for canonical RDATA re-encoding needs this.
func base32HexDecode(s string) ([]byte, error) {
	return base32HexEncoding.DecodeString(strings.ToUpper(s))
}

// HashedName is one (owner name, NSEC3 hash) pair produced by HashNSEC3Names.
type HashedName struct {
	Name Name
	Hash []byte
}

// HashNSEC3Names implements §4.5: expand names with empty non-terminals,
// hash each with iterations+1 SHA1 applications (see nsec3Hash), detect
// collisions, and return the pairs sorted by hash.
func HashNSEC3Names(names []Name, origin Name, salt []byte, iterations uint16) ([]HashedName, error) {
	expanded := expandEmptyNonTerminals(names, origin)

	out := make([]HashedName, 0, len(expanded))
	seen := make(map[string]Name, len(expanded))
	for _, n := range expanded {
		h := nsec3Hash(n, origin, salt, iterations)
		key := string(h)
		if other, dup := seen[key]; dup {
			return nil, &NSEC3CollisionError{
				NameA: string(other),
				NameB: string(n),
				Hash:  fmt.Sprintf("%x", h),
			}
		}
		seen[key] = n
		out = append(out, HashedName{Name: n, Hash: h})
	}

	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Hash) < string(out[j].Hash)
	})
	return out, nil
}

// nsec3Hash computes H(salt, H(salt, ... H(salt, H(name)))) with
// iterations+1 total SHA1 applications: one unsalted SHA1 over the name's
// canonical wire form, then `iterations` rounds of h = SHA1(h || salt).
func nsec3Hash(name Name, origin Name, salt []byte, iterations uint16) []byte {
	h := sha1.Sum(name.ToDigestable(origin))
	digest := h[:]
	for i := 0; i < int(iterations); i++ {
		sum := sha1.New()
		sum.Write(digest)
		sum.Write(salt)
		digest = sum.Sum(nil)
	}
	return digest
}

// expandEmptyNonTerminals adds every ancestor of each name, up to but not
// including origin, that is not already present in names (RFC 5155 §7.1).
func expandEmptyNonTerminals(names []Name, origin Name) []Name {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[string(n.Absolute(origin))] = true
	}

	out := append([]Name(nil), names...)
	originLabels := len(origin.labels())

	for _, n := range names {
		labels := n.Absolute(origin).labels()
		for depth := len(labels) - 1; depth > originLabels; depth-- {
			ancestor := Name(joinLabels(labels[len(labels)-depth:]))
			key := string(ancestor.Absolute(origin))
			if !present[key] {
				present[key] = true
				out = append(out, ancestor)
			}
		}
	}
	return out
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ".") + "."
}
