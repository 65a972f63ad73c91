/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"github.com/miekg/dns"
)

// typesAtOwner collects the RR types present at name that count toward the
// NSEC/NSEC3 type bitmap: bitmapType itself, RRSIG when includeRRSIG is
// set, plus every type that is authoritative data or a delegation NS at
// that name.
func (z *Zone) typesAtOwner(name Name, delegations map[string]bool, includeRRSIG bool, bitmapType uint16) map[uint16]bool {
	types := make(map[uint16]bool)
	if includeRRSIG {
		types[dns.TypeRRSIG] = true
	}
	types[bitmapType] = true

	abs := name.Absolute(z.Origin)
	isDelegationPoint := delegations[string(abs)]

	for _, rrset := range z.RRsetsAt(name) {
		switch {
		case isDelegationPoint && rrset.Type == dns.TypeNS:
			types[dns.TypeNS] = true
		case z.IsAuthoritative(name, rrset.Type, delegations):
			types[rrset.Type] = true
		}
	}
	return types
}

// AddNSEC implements §4.7 add_nsec: builds the canonical NSEC chain over
// delegations ∪ authoritative_names and inserts one NSEC RRset per name.
func (z *Zone) AddNSEC() error {
	minTTL, err := z.MinimumTTL()
	if err != nil {
		return err
	}

	owners := z.SignableOwners()
	if len(owners) == 0 {
		return nil
	}
	delegations := delegationSet(z.Delegations())

	for i, name := range owners {
		next := owners[(i+1)%len(owners)]
		types := z.typesAtOwner(name, delegations, true, dns.TypeNSEC)

		rr := &dns.NSEC{
			Hdr: dns.RR_Header{
				Name:   string(name.Absolute(z.Origin)),
				Rrtype: dns.TypeNSEC,
				Class:  dns.ClassINET,
				Ttl:    minTTL,
			},
			NextDomain: string(next.Absolute(z.Origin)),
			TypeBitMap: BuildTypeBitmap(types),
		}

		z.AddRRset(&RRset{
			Name:  name.Absolute(z.Origin),
			Class: dns.ClassINET,
			Type:  dns.TypeNSEC,
			TTL:   minTTL,
			RRs:   []dns.RR{rr},
		})
	}
	return nil
}
