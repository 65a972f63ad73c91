/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"log"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultKeyTTL            = 3600
	defaultSignatureLifetime = 90 * 24 * time.Hour
	defaultInceptionSkew     = -24 * time.Hour
)

// PrivateKey is a DNSSEC signing key: its public DNSKEY projection plus the
// private-key material needed to sign with it. KSKs carry the SEP flag;
// ZSKs do not.
type PrivateKey struct {
	DNSKEY *dns.DNSKEY
	RSA    *rsa.PrivateKey // non-nil for RSA-family algorithms; DSA signing is out of scope (§9)
}

// IsKSK reports whether this key carries the SEP bit.
func (k *PrivateKey) IsKSK() bool {
	return k.DNSKEY.Flags&dns.SEP != 0
}

// SignRRset implements §4.10 sign_rrset: compose the digest and produce an
// RRSIG over rrset with the given key and validity window.
func SignRRset(rrset *RRset, key *PrivateKey, origin Name, inception, expiration time.Time) (*dns.RRSIG, error) {
	if key.RSA == nil {
		return nil, &UnsupportedAlgorithmError{Algorithm: key.DNSKEY.Algorithm, Context: "sign_rrset only supports RSA-family private keys"}
	}

	tag, err := KeyTag(key.DNSKEY, origin)
	if err != nil {
		return nil, err
	}

	meta := RRSIGMeta{
		TypeCovered: rrset.Type,
		Algorithm:   Algorithm(key.DNSKEY.Algorithm),
		Labels:      rrsigLabels(rrset.Name, origin),
		OrigTTL:     rrset.TTL,
		Expiration:  uint32(expiration.Unix()),
		Inception:   uint32(inception.Unix()),
		KeyTag:      tag,
		Signer:      origin,
	}

	digest, hash, err := ComposeRRSIGDigest(rrset, meta, origin)
	if err != nil {
		return nil, err
	}

	sig, err := rsaSign(key.RSA, digest, hash)
	if err != nil {
		return nil, err
	}

	return &dns.RRSIG{
		Hdr: dns.RR_Header{
			Name:   string(rrset.Name.Absolute(origin)),
			Rrtype: dns.TypeRRSIG,
			Class:  rrset.Class,
			Ttl:    rrset.TTL,
		},
		TypeCovered: meta.TypeCovered,
		Algorithm:   uint8(meta.Algorithm),
		Labels:      meta.Labels,
		OrigTtl:     meta.OrigTTL,
		Expiration:  meta.Expiration,
		Inception:   meta.Inception,
		KeyTag:      meta.KeyTag,
		SignerName:  string(meta.Signer.Absolute(origin)),
		Signature:   base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// SignZoneOptions configures sign_zone (§4.10).
type SignZoneOptions struct {
	Keys       []*PrivateKey
	Inception  time.Time // zero means now - 1 day
	Expiration time.Time // zero means now + 90 days
	NSEC3      bool
	KeyTTL     uint32 // 0 means 3600
	NSEC3Salt  []byte // nil means generate
	NSEC3Iters uint16 // 0 means 10
	Context    context.Context
}

func classifyKeys(keys []*PrivateKey) (zsks []*PrivateKey) {
	for _, k := range keys {
		if !k.IsKSK() {
			zsks = append(zsks, k)
		}
	}
	if len(zsks) == 0 {
		// "when no ZSK is present", §4.10: all supplied keys also sign as ZSKs.
		return keys
	}
	return zsks
}

// SignZone implements §4.10 sign_zone: inserts DNSKEYs at the apex, builds
// the NSEC or NSEC3 chain, signs the apex DNSKEY RRset with every key, and
// signs every other authoritative RRset with every ZSK.
func SignZone(z *Zone, opts SignZoneOptions) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	keyTTL := opts.KeyTTL
	if keyTTL == 0 {
		keyTTL = defaultKeyTTL
	}
	inception := opts.Inception
	if inception.IsZero() {
		inception = time.Now().Add(defaultInceptionSkew)
	}
	expiration := opts.Expiration
	if expiration.IsZero() {
		expiration = time.Now().Add(defaultSignatureLifetime)
	}

	dnskeyRRs := make([]dns.RR, 0, len(opts.Keys))
	for _, k := range opts.Keys {
		dk := *k.DNSKEY
		dk.Hdr.Name = string(z.Origin)
		dk.Hdr.Rrtype = dns.TypeDNSKEY
		dk.Hdr.Class = dns.ClassINET
		dk.Hdr.Ttl = keyTTL
		dnskeyRRs = append(dnskeyRRs, &dk)
	}
	z.AddRRset(&RRset{
		Name:  z.Origin,
		Class: dns.ClassINET,
		Type:  dns.TypeDNSKEY,
		TTL:   keyTTL,
		RRs:   dnskeyRRs,
	})

	if opts.NSEC3 {
		if err := z.AddNSEC3(NSEC3Params{
			Salt:       opts.NSEC3Salt,
			Iterations: opts.NSEC3Iters,
			CallerSalt: opts.NSEC3Salt != nil,
		}); err != nil {
			return err
		}
	} else {
		if err := z.AddNSEC(); err != nil {
			return err
		}
	}

	zsks := classifyKeys(opts.Keys)

	dnskeySet := z.GetRRset(z.Origin, dns.TypeDNSKEY)
	for _, k := range opts.Keys {
		sig, err := SignRRset(dnskeySet, k, z.Origin, inception, expiration)
		if err != nil {
			return err
		}
		dnskeySet.RRSIGs = append(dnskeySet.RRSIGs, sig)
	}

	delegations := delegationSet(z.Delegations())

	for _, name := range z.OwnerNames() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, rrset := range z.RRsetsAt(name) {
			if rrset.Type == dns.TypeDNSKEY || rrset.Type == dns.TypeRRSIG {
				continue
			}
			if !z.IsAuthoritative(name, rrset.Type, delegations) {
				continue
			}
			for _, zsk := range zsks {
				sig, err := SignRRset(rrset, zsk, z.Origin, inception, expiration)
				if err != nil {
					return err
				}
				rrset.RRSIGs = append(rrset.RRSIGs, sig)
			}
		}
	}

	log.Printf("dnssec: signed zone %s (%d keys, nsec3=%v)", z.Origin, len(opts.Keys), opts.NSEC3)
	return nil
}

// UnsignZone implements unsign_zone: removes every RRSIG, NSEC, NSEC3,
// NSEC3PARAM, and the apex DNSKEY RRset, producing the unsigned zone.
func UnsignZone(z *Zone) {
	for _, name := range z.OwnerNames() {
		for _, rrset := range z.RRsetsAt(name) {
			rrset.RRSIGs = nil
			switch rrset.Type {
			case dns.TypeNSEC, dns.TypeNSEC3, dns.TypeNSEC3PARAM:
				z.RemoveRRset(name, rrset.Type)
			}
		}
	}
	z.RemoveRRset(z.Origin, dns.TypeDNSKEY)
}

// SigsExpireBefore implements sigs_expire_before: true iff any RRSIG in the
// zone expires before limit.
func SigsExpireBefore(z *Zone, limit time.Time) bool {
	lim := uint32(limit.Unix())
	for _, rrset := range z.AllRRsets() {
		for _, sig := range rrset.RRSIGs {
			if serialLess(sig.Expiration, lim) {
				return true
			}
		}
	}
	return false
}
