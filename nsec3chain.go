/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto/rand"
	"fmt"

	"github.com/miekg/dns"
)

const defaultNSEC3Iterations = 10
const defaultNSEC3SaltLen = 8

// NSEC3Params bundles the salt/iterations pair used across a single chain
// build, so AddNSEC3 can retry with a fresh salt on collision without the
// caller threading mutable state through.
type NSEC3Params struct {
	Salt       []byte // nil means "generate one"
	Iterations uint16
	CallerSalt bool // true if the caller supplied Salt explicitly
}

// AddNSEC3 implements §4.8 add_nsec3: emits NSEC3PARAM at the apex, hashes
// delegations ∪ authoritative_names (with empty-non-terminal expansion),
// and inserts one NSEC3 RRset per hashed owner.
func (z *Zone) AddNSEC3(params NSEC3Params) error {
	if params.Iterations == 0 {
		params.Iterations = defaultNSEC3Iterations
	}

	const maxRetries = 8
	var hashed []HashedName
	salt := params.Salt
	for attempt := 0; ; attempt++ {
		if salt == nil {
			salt = make([]byte, defaultNSEC3SaltLen)
			if _, err := rand.Read(salt); err != nil {
				return fmt.Errorf("nsec3: generating salt: %w", err)
			}
		}

		var err error
		hashed, err = HashNSEC3Names(z.SignableOwners(), z.Origin, salt, params.Iterations)
		if err == nil {
			break
		}

		var collision *NSEC3CollisionError
		if !asNSEC3Collision(err, &collision) {
			return err
		}
		if params.CallerSalt {
			return err
		}
		if attempt >= maxRetries {
			return err
		}
		salt = nil // force a fresh random salt on retry
	}

	minTTL, err := z.MinimumTTL()
	if err != nil {
		return err
	}

	z.AddRRset(&RRset{
		Name:  z.Origin,
		Class: dns.ClassINET,
		Type:  dns.TypeNSEC3PARAM,
		TTL:   minTTL,
		RRs: []dns.RR{&dns.NSEC3PARAM{
			Hdr: dns.RR_Header{
				Name:   string(z.Origin),
				Rrtype: dns.TypeNSEC3PARAM,
				Class:  dns.ClassINET,
				Ttl:    minTTL,
			},
			Hash:       dns.SHA1,
			Flags:      0,
			Iterations: params.Iterations,
			SaltLength: uint8(len(salt)),
			Salt:       fmt.Sprintf("%X", salt),
		}},
	})

	delegations := delegationSet(z.Delegations())
	authNames := make(map[string]bool)
	for _, n := range z.AuthoritativeNames() {
		authNames[string(n.Absolute(z.Origin))] = true
	}

	for i, hn := range hashed {
		next := hashed[(i+1)%len(hashed)]
		owner := Name(base32HexEncode(hn.Hash) + "." + string(z.Origin))

		hasAuthData := authNames[string(hn.Name.Absolute(z.Origin))]
		types := z.typesAtOwner(hn.Name, delegations, hasAuthData, dns.TypeNSEC3)

		rr := &dns.NSEC3{
			Hdr: dns.RR_Header{
				Name:   string(owner),
				Rrtype: dns.TypeNSEC3,
				Class:  dns.ClassINET,
				Ttl:    minTTL,
			},
			Hash:       dns.SHA1,
			Flags:      0,
			Iterations: params.Iterations,
			SaltLength: uint8(len(salt)),
			Salt:       fmt.Sprintf("%X", salt),
			HashLength: uint8(len(next.Hash)),
			NextDomain: base32HexEncode(next.Hash),
			TypeBitMap: BuildTypeBitmap(types),
		}

		z.AddRRset(&RRset{
			Name:  owner,
			Class: dns.ClassINET,
			Type:  dns.TypeNSEC3,
			TTL:   minTTL,
			RRs:   []dns.RR{rr},
		})
	}

	return nil
}

func asNSEC3Collision(err error, target **NSEC3CollisionError) bool {
	c, ok := err.(*NSEC3CollisionError)
	if ok {
		*target = c
	}
	return ok
}
