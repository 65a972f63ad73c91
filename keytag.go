/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"github.com/hashicorp/golang-lru"
	"github.com/miekg/dns"
)

// keyTagCache memoises KeyTag by the DNSKEY's canonical RDATA wire bytes.
// The original reference recomputes key_id() per candidate key on every
// validate_rrsig call with no caching (Design Notes §9); this is a pure
// performance fix with no behaviour change, sized generously for a zone
// with many keys.
var keyTagCache, _ = lru.New(1024)

// KeyTag computes the RFC 4034 Appendix B key tag of a DNSKEY.
func KeyTag(key *dns.DNSKEY, origin Name) (uint16, error) {
	if key.Algorithm == uint8(AlgorithmRSAMD5) {
		return 0, &UnsupportedAlgorithmError{Algorithm: key.Algorithm, Context: "MD5 key tag uses a different algorithm, out of scope"}
	}

	wire, err := RdataToWire(key, origin)
	if err != nil {
		return 0, err
	}

	cacheKey := string(wire)
	if v, ok := keyTagCache.Get(cacheKey); ok {
		return v.(uint16), nil
	}

	tag := keyTagFromWire(wire)
	keyTagCache.Add(cacheKey, tag)
	return tag, nil
}

// keyTagFromWire implements the RFC 4034 Appendix B folding sum directly
// over a DNSKEY RDATA's wire bytes.
func keyTagFromWire(wire []byte) uint16 {
	var ac uint32
	for i, b := range wire {
		if i&1 == 0 {
			ac += uint32(b) << 8
		} else {
			ac += uint32(b)
		}
	}
	ac += (ac >> 16) & 0xFFFF
	return uint16(ac & 0xFFFF)
}
