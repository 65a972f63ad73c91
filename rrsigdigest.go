/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"bytes"
	"crypto"
	"sort"

	"github.com/miekg/dns"
	"github.com/twotwotwo/sorts"
)

// wireBytesSlice adapts a [][]byte to sort.Interface so the RDATA wire
// forms gathered in ComposeRRSIGDigest can be handed to a concurrent
// quicksort rather than an allocation-per-compare sort.Slice closure.
type wireBytesSlice [][]byte

func (s wireBytesSlice) Len() int           { return len(s) }
func (s wireBytesSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s wireBytesSlice) Less(i, j int) bool { return bytes.Compare(s[i], s[j]) < 0 }

// sortRdataWires orders the RDATA wire forms canonically (RFC 4034 §6.3).
// Large RRsets route through sorts.Quicksort's concurrent merge; small ones
// aren't worth the goroutine overhead and use sort.Slice directly.
func sortRdataWires(wires [][]byte) {
	if len(wires) < 32 {
		sort.Slice(wires, func(i, j int) bool { return bytes.Compare(wires[i], wires[j]) < 0 })
		return
	}
	sorts.Quicksort(wireBytesSlice(wires))
}

// RRSIGMeta is the RRSIG metadata needed to compose a digest, independent
// of whether the signature bytes are already known (validating) or not yet
// computed (signing).
type RRSIGMeta struct {
	TypeCovered uint16
	Algorithm   Algorithm
	Labels      uint8
	OrigTTL     uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	Signer      Name
}

// rrsigLabels implements the original source's `_rrsig_labels`: the
// RFC 4034 §3.1.3 label count of an absolute owner name, excluding the
// root label and a leading wildcard label ("*.example." counts 1).
func rrsigLabels(owner Name, origin Name) uint8 {
	labels := owner.Absolute(origin).labels()
	n := len(labels)
	if n > 0 && labels[0] == "*" {
		n--
	}
	return uint8(n)
}

// fixedPrefix renders the first 18 octets of the RRSIG RDATA wire form
// (everything up to, but not including, the signer name and signature).
func (m RRSIGMeta) fixedPrefix() []byte {
	var buf bytes.Buffer
	writeU16(&buf, m.TypeCovered)
	buf.WriteByte(uint8(m.Algorithm))
	buf.WriteByte(m.Labels)
	writeU32(&buf, m.OrigTTL)
	writeU32(&buf, m.Expiration)
	writeU32(&buf, m.Inception)
	writeU16(&buf, m.KeyTag)
	return buf.Bytes()
}

// wildcardSynthesize implements RFC 4035 §5.3.2 / §4.9 step 2: if the
// RRSIG was generated for fewer labels than the RRset's owner actually
// has, the digest is computed against the synthesised wildcard owner
// instead of the literal one.
func wildcardSynthesize(owner Name, origin Name, sigLabels uint8) Name {
	abs := owner.Absolute(origin)
	labels := abs.labels()
	ownerLabelCount := len(labels)
	if int(sigLabels) >= ownerLabelCount {
		return abs
	}
	suffix := labels[ownerLabelCount-int(sigLabels):]
	return Name("*." + joinLabels(suffix))
}

// ComposeRRSIGDigest implements §4.9: builds the exact byte stream fed to
// the signing/verifying primitive, then hashes it with the algorithm's
// hash function. Returns the raw digest bytes and the crypto.Hash used.
func ComposeRRSIGDigest(rrset *RRset, meta RRSIGMeta, origin Name) ([]byte, crypto.Hash, error) {
	desc, err := descriptorFor(meta.Algorithm)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	buf.Write(meta.fixedPrefix())
	buf.Write(meta.Signer.ToDigestable(origin))

	owner := wildcardSynthesize(rrset.Name, origin, meta.Labels)
	ownerDigestable := owner.ToDigestable(origin)

	var rrfixed bytes.Buffer
	writeU16(&rrfixed, rrset.Type)
	writeU16(&rrfixed, rrset.Class)
	writeU32(&rrfixed, meta.OrigTTL)

	wires := make([][]byte, 0, len(rrset.RRs))
	for _, rr := range rrset.RRs {
		w, err := RdataToWire(rr, origin)
		if err != nil {
			return nil, 0, err
		}
		wires = append(wires, w)
	}
	sortRdataWires(wires)

	for _, w := range wires {
		buf.Write(ownerDigestable)
		buf.Write(rrfixed.Bytes())
		var lenBuf bytes.Buffer
		writeU16(&lenBuf, uint16(len(w)))
		buf.Write(lenBuf.Bytes())
		buf.Write(w)
	}

	h := desc.hash.New()
	h.Write(buf.Bytes())
	return h.Sum(nil), desc.hash, nil
}

// metaFromRRSIG builds RRSIGMeta from a parsed *dns.RRSIG.
func metaFromRRSIG(sig *dns.RRSIG) RRSIGMeta {
	return RRSIGMeta{
		TypeCovered: sig.TypeCovered,
		Algorithm:   Algorithm(sig.Algorithm),
		Labels:      sig.Labels,
		OrigTTL:     sig.OrigTtl,
		Expiration:  sig.Expiration,
		Inception:   sig.Inception,
		KeyTag:      sig.KeyTag,
		Signer:      Name(sig.SignerName),
	}
}
