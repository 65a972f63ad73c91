/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// DigestType identifies the hash algorithm used in a DS record (RFC 4034).
type DigestType uint8

const (
	DigestSHA1   DigestType = 1
	DigestSHA256 DigestType = 2
)

// DigestTypeFromText parses "SHA1"/"SHA256" (case-insensitive).
func DigestTypeFromText(s string) (DigestType, error) {
	switch strings.ToUpper(s) {
	case "SHA1":
		return DigestSHA1, nil
	case "SHA256":
		return DigestSHA256, nil
	default:
		return 0, &UnsupportedAlgorithmError{Context: fmt.Sprintf("unsupported DS digest type %q", s)}
	}
}

// DS is a Delegation Signer record summarising a DNSKEY.
type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType DigestType
	Digest     []byte
}

// MakeDS implements §4.2 make_ds: digest = H(canonical_name(owner) ||
// rdata_to_wire(dnskey)).
func MakeDS(owner Name, key *dns.DNSKEY, origin Name, digestType DigestType) (*DS, error) {
	tag, err := KeyTag(key, origin)
	if err != nil {
		return nil, err
	}

	keyWire, err := RdataToWire(key, origin)
	if err != nil {
		return nil, err
	}

	stream := append(owner.ToDigestable(origin), keyWire...)

	var digest []byte
	switch digestType {
	case DigestSHA1:
		sum := sha1.Sum(stream)
		digest = sum[:]
	case DigestSHA256:
		sum := sha256.Sum256(stream)
		digest = sum[:]
	default:
		return nil, &UnsupportedAlgorithmError{Algorithm: uint8(digestType), Context: "unsupported DS digest type"}
	}

	return &DS{
		KeyTag:     tag,
		Algorithm:  key.Algorithm,
		DigestType: digestType,
		Digest:     digest,
	}, nil
}

// DigestHex renders the DS digest as upper-case hex, the conventional
// presentation form for a DS record's digest field.
func (d *DS) DigestHex() string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 2*len(d.Digest))
	for i, b := range d.Digest {
		out[2*i] = hexDigits[b>>4]
		out[2*i+1] = hexDigits[b&0xF]
	}
	return string(out)
}
