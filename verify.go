/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
)

// KeyRing indexes DNSKEYs by owner (signer) name, as validate_rrsig and
// validate expect to be handed: `keys[rrsig.signer]`.
type KeyRing map[string][]*dns.DNSKEY

// NewKeyRing builds a KeyRing from a flat list of DNSKEYs, keyed by their
// own owner name.
func NewKeyRing(keys []*dns.DNSKEY) KeyRing {
	kr := make(KeyRing)
	for _, k := range keys {
		name := string(Name(k.Header().Name).Absolute(Name(k.Header().Name)))
		kr[name] = append(kr[name], k)
	}
	return kr
}

// Add inserts key under owner into the ring (owner is typically the zone
// origin for apex DNSKEYs).
func (kr KeyRing) Add(owner Name, origin Name, key *dns.DNSKEY) {
	name := string(owner.Absolute(origin))
	kr[name] = append(kr[name], key)
}

// withinValidityPeriod checks inception <= now <= expiration using RFC 1982
// serial-number arithmetic, so that the 32-bit inception/expiration
// timestamps compare correctly across the 2106 wraparound, the way BIND
// does.
func withinValidityPeriod(inception, expiration uint32, now time.Time) error {
	n := uint32(now.Unix())
	if serialLess(n, inception) {
		return newValidationFailure("not yet valid")
	}
	if serialLess(expiration, n) {
		return newValidationFailure("expired")
	}
	return nil
}

// serialLess reports whether a comes before b under RFC 1982 serial
// arithmetic (a < b, wraparound-aware).
func serialLess(a, b uint32) bool {
	return int32(a-b) < 0
}

// candidateKeys selects the DNSKEYs from keys[rrsig.signer] whose algorithm
// and key tag match rrsig (§4.11 step 1).
func candidateKeys(keys KeyRing, rrsig *dns.RRSIG, origin Name) []*dns.DNSKEY {
	signer := string(Name(rrsig.SignerName).Absolute(origin))
	var out []*dns.DNSKEY
	for _, k := range keys[signer] {
		if k.Algorithm != rrsig.Algorithm {
			continue
		}
		tag, err := KeyTag(k, origin)
		if err != nil || tag != rrsig.KeyTag {
			continue
		}
		out = append(out, k)
	}
	return out
}

// ValidateRRSIG implements §4.11 validate_rrsig: select candidate keys,
// check temporal validity, reconstruct the digest, and verify the
// signature against each candidate key's public material, per algorithm.
func ValidateRRSIG(rrset *RRset, rrsig *dns.RRSIG, keys KeyRing, origin Name, now time.Time) error {
	if err := withinValidityPeriod(rrsig.Inception, rrsig.Expiration, now); err != nil {
		return err
	}

	candidates := candidateKeys(keys, rrsig, origin)
	if len(candidates) == 0 {
		return newValidationFailure("no candidate keys for signer/algorithm/key-tag")
	}

	desc, err := descriptorFor(Algorithm(rrsig.Algorithm))
	if err != nil {
		return &ValidationFailure{Reason: err.Error()}
	}

	meta := metaFromRRSIG(rrsig)
	digest, hash, err := ComposeRRSIGDigest(rrset, meta, origin)
	if err != nil {
		return err
	}

	sigBytes, err := base64.StdEncoding.DecodeString(rrsig.Signature)
	if err != nil {
		return newValidationFailure(fmt.Sprintf("malformed signature encoding: %v", err))
	}

	var lastErr error
	for _, k := range candidates {
		kb, err := base64.StdEncoding.DecodeString(k.PublicKey)
		if err != nil {
			lastErr = newValidationFailure("malformed key encoding")
			continue
		}

		if desc.isRSA() {
			pub, err := parseRSAPublicKey(kb)
			if err != nil {
				lastErr = newValidationFailure(fmt.Sprintf("malformed rsa key: %v", err))
				continue
			}
			if err := rsaVerify(pub, digest, hash, sigBytes); err != nil {
				lastErr = err
				continue
			}
			return nil
		}

		pub, err := parseDSAPublicKey(kb)
		if err != nil {
			lastErr = newValidationFailure(fmt.Sprintf("malformed dsa key: %v", err))
			continue
		}
		r, s, err := parseDSASignature(sigBytes)
		if err != nil {
			lastErr = newValidationFailure(fmt.Sprintf("malformed dsa signature: %v", err))
			continue
		}
		if err := dsaVerify(pub, digest, r, s); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return lastErr
	}
	return newValidationFailure("verify failure")
}

// Validate implements §4.11 validate: try every RRSIG in rrsigset against
// rrset, succeeding on the first that validates, and collapsing every
// per-candidate failure into one ValidationFailure otherwise. Fails early
// if the RRset's owner and the RRSIG set's owners differ after relativity
// normalisation — the correct check per the Design Notes' corrected
// `rrname != rrsigname` comparison.
func Validate(rrset *RRset, rrsigset []*dns.RRSIG, keys KeyRing, origin Name, now time.Time) error {
	if len(rrsigset) == 0 {
		return newValidationFailure("no RRSIGs validated")
	}

	rrname := rrset.Name.Absolute(origin)
	for _, rrsig := range rrsigset {
		rrsigname := Name(rrsig.Header().Name).Absolute(origin)
		if string(rrname) != string(rrsigname) {
			return newValidationFailure("owner names do not match")
		}
	}

	var merr *multierror.Error
	for _, rrsig := range rrsigset {
		if err := ValidateRRSIG(rrset, rrsig, keys, origin, now); err == nil {
			return nil
		} else {
			merr = multierror.Append(merr, err)
		}
	}

	vf := newValidationFailure("no RRSIGs validated")
	if merr != nil {
		for _, e := range merr.Errors {
			vf.Reasons = append(vf.Reasons, e.Error())
		}
	}
	return vf
}
