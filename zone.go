/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/miekg/dns"
)

// RRset is a (name, class, type, TTL, set of RDATA) tuple, plus any RRSIGs
// already covering it. Order of RRs within RRs is not semantically
// meaningful; canonical ordering is computed on demand when digesting.
type RRset struct {
	Name   Name
	Class  uint16
	Type   uint16
	TTL    uint32
	RRs    []dns.RR
	RRSIGs []*dns.RRSIG
}

// rrsetKey identifies an RRset within a zone node: (type, covers). "Covers"
// only matters for RRSIG nodes, which this package manages out-of-band via
// RRset.RRSIGs rather than as an addressable node entry.
type rrsetKey struct {
	rrtype uint16
}

// zoneNode is the set of RRsets at one owner name.
type zoneNode struct {
	sets map[rrsetKey]*RRset
}

func newZoneNode() *zoneNode {
	return &zoneNode{sets: make(map[rrsetKey]*RRset)}
}

// Zone is an in-memory DNS zone: a concurrent owner-name → node map plus an
// origin. Only the owner-name index is concurrency-safe; the per-node RRset
// maps and the RRsets themselves are mutated in place without locking, so
// a Zone must not be read by another goroutine while SignZone mutates it.
// Signing itself is single-threaded and synchronous.
type Zone struct {
	Origin Name
	nodes  cmap.ConcurrentMap[string, *zoneNode]
}

// NewZone creates an empty zone rooted at origin.
func NewZone(origin Name) *Zone {
	return &Zone{
		Origin: origin.Absolute(origin),
		nodes:  cmap.New[*zoneNode](),
	}
}

func ownerKey(name Name, origin Name) string {
	return string(name.Absolute(origin))
}

// AddRRset inserts or replaces the RRset of the given type at name.
func (z *Zone) AddRRset(rrset *RRset) {
	key := ownerKey(rrset.Name, z.Origin)
	node, _ := z.nodes.Get(key)
	if node == nil {
		node = newZoneNode()
	}
	node.sets[rrsetKey{rrset.Type}] = rrset
	z.nodes.Set(key, node)
}

// RemoveRRset deletes the RRset of the given type at name, if present.
func (z *Zone) RemoveRRset(name Name, rrtype uint16) {
	key := ownerKey(name, z.Origin)
	node, ok := z.nodes.Get(key)
	if !ok {
		return
	}
	delete(node.sets, rrsetKey{rrtype})
	if len(node.sets) == 0 {
		z.nodes.Remove(key)
	} else {
		z.nodes.Set(key, node)
	}
}

// GetRRset returns the RRset of the given type at name, or nil.
func (z *Zone) GetRRset(name Name, rrtype uint16) *RRset {
	node, ok := z.nodes.Get(ownerKey(name, z.Origin))
	if !ok {
		return nil
	}
	return node.sets[rrsetKey{rrtype}]
}

// OwnerNames returns every owner name with at least one RRset, unordered.
func (z *Zone) OwnerNames() []Name {
	keys := z.nodes.Keys()
	out := make([]Name, len(keys))
	for i, k := range keys {
		out[i] = Name(k)
	}
	return out
}

// RRsetsAt returns every RRset at name, unordered.
func (z *Zone) RRsetsAt(name Name) []*RRset {
	node, ok := z.nodes.Get(ownerKey(name, z.Origin))
	if !ok {
		return nil
	}
	out := make([]*RRset, 0, len(node.sets))
	for _, rrset := range node.sets {
		out = append(out, rrset)
	}
	return out
}

// AllRRsets returns every RRset in the zone, unordered.
func (z *Zone) AllRRsets() []*RRset {
	var out []*RRset
	for _, name := range z.OwnerNames() {
		out = append(out, z.RRsetsAt(name)...)
	}
	return out
}

// SOA returns the zone's SOA RRset, or a NoSOAError if absent.
func (z *Zone) SOA() (*RRset, error) {
	soa := z.GetRRset(z.Origin, dns.TypeSOA)
	if soa == nil || len(soa.RRs) == 0 {
		return nil, &NoSOAError{Origin: string(z.Origin)}
	}
	return soa, nil
}

// MinimumTTL returns the SOA.minimum field (§4.3 minimum_ttl).
func (z *Zone) MinimumTTL() (uint32, error) {
	soa, err := z.SOA()
	if err != nil {
		return 0, err
	}
	rec, ok := soa.RRs[0].(*dns.SOA)
	if !ok {
		return 0, &NoSOAError{Origin: string(z.Origin)}
	}
	return rec.Minttl, nil
}

// Delegations returns the set of owner names N != origin for which the
// zone has an NS RRset (§4.3 delegations).
func (z *Zone) Delegations() []Name {
	var out []Name
	for _, name := range z.OwnerNames() {
		abs := name.Absolute(z.Origin)
		if string(abs) == string(z.Origin) {
			continue
		}
		if ns := z.GetRRset(name, dns.TypeNS); ns != nil && len(ns.RRs) > 0 {
			out = append(out, abs)
		}
	}
	return out
}

func delegationSet(delegations []Name) map[string]bool {
	m := make(map[string]bool, len(delegations))
	for _, d := range delegations {
		m[string(d)] = true
	}
	return m
}

// IsDelegation reports whether rrset at name is an NS RRset below the
// origin (§4.3 is_delegation).
func IsDelegation(name Name, rrset *RRset, origin Name) bool {
	return rrset.Type == dns.TypeNS && string(name.Absolute(origin)) != string(origin)
}

// isBelowDelegation reports whether name is a strict descendant of any
// name in delegations.
func isBelowDelegation(name Name, origin Name, delegations map[string]bool) bool {
	labels := name.Absolute(origin).labels()
	for i := 1; i < len(labels); i++ {
		ancestor := Name(joinLabels(labels[i:])).Absolute(origin)
		if delegations[string(ancestor)] {
			return true
		}
	}
	return false
}

// IsAuthoritative reports whether the RRset of the given type at name is
// authoritative data for the zone (§4.3 is_authoritative): within the
// zone, not below a delegation point, and — at a delegation point itself —
// only DS/NSEC/NSEC3 count.
func (z *Zone) IsAuthoritative(name Name, rrtype uint16, delegations map[string]bool) bool {
	abs := name.Absolute(z.Origin)
	if !isSubdomainOrEqual(abs, z.Origin) {
		return false
	}
	if isBelowDelegation(abs, z.Origin, delegations) {
		return false
	}
	if delegations[string(abs)] {
		switch rrtype {
		case dns.TypeDS, dns.TypeNSEC, dns.TypeNSEC3:
			return true
		default:
			return false
		}
	}
	return true
}

func isSubdomainOrEqual(name Name, origin Name) bool {
	if string(name) == string(origin) {
		return true
	}
	nl := reverseLabels(name.labels())
	ol := reverseLabels(origin.labels())
	if len(nl) < len(ol) {
		return false
	}
	for i := range ol {
		if asciiLower(nl[i]) != asciiLower(ol[i]) {
			return false
		}
	}
	return true
}

// AuthoritativeNames returns the owner names with at least one
// authoritative RRset (§4.3 authoritative_names).
func (z *Zone) AuthoritativeNames() []Name {
	delegations := delegationSet(z.Delegations())
	seen := make(map[string]bool)
	var out []Name
	for _, name := range z.OwnerNames() {
		if seen[string(name)] {
			continue
		}
		for _, rrset := range z.RRsetsAt(name) {
			if z.IsAuthoritative(name, rrset.Type, delegations) {
				out = append(out, name)
				seen[string(name)] = true
				break
			}
		}
	}
	return out
}

// SignableOwners returns the canonically-sorted union of delegation and
// authoritative owner names: the name set N the NSEC/NSEC3 chains are
// built over (§4.7, §4.8).
func (z *Zone) SignableOwners() []Name {
	delegations := z.Delegations()
	auth := z.AuthoritativeNames()
	seen := make(map[string]bool, len(delegations)+len(auth))
	var out []Name
	for _, n := range append(delegations, auth...) {
		key := string(n.Absolute(z.Origin))
		if !seen[key] {
			seen[key] = true
			out = append(out, n)
		}
	}
	SortNamesCanonical(out, z.Origin)
	return out
}
