/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

// DnssecKeys groups a zone's signing keys by role — a convenience for
// callers assembling SignZoneOptions.Keys from a key store.
type DnssecKeys struct {
	KSKs []*PrivateKey
	ZSKs []*PrivateKey
}

// All flattens KSKs and ZSKs into the single slice SignZone expects.
func (d DnssecKeys) All() []*PrivateKey {
	out := make([]*PrivateKey, 0, len(d.KSKs)+len(d.ZSKs))
	out = append(out, d.KSKs...)
	out = append(out, d.ZSKs...)
	return out
}

// ClassifyKeys splits a flat key list into KSKs (SEP bit set) and ZSKs.
func ClassifyKeys(keys []*PrivateKey) DnssecKeys {
	var d DnssecKeys
	for _, k := range keys {
		if k.IsKSK() {
			d.KSKs = append(d.KSKs, k)
		} else {
			d.ZSKs = append(d.ZSKs, k)
		}
	}
	return d
}
