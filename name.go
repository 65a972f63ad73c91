/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"bytes"
	"sort"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/exp/slices"
)

// Name is a DNS name in its presentation (text) form, e.g. "www.example.com."
// Label tokenisation (including escape handling, "\.") is delegated to
// miekg/dns's text parser; everything downstream of that — wire encoding,
// lower-casing, and canonical ordering — is this package's own.
type Name string

// Absolute returns n qualified against origin if n is not already a fully
// qualified (trailing-dot) name.
func (n Name) Absolute(origin Name) Name {
	s := string(n)
	if strings.HasSuffix(s, ".") {
		return Name(s)
	}
	if s == "" || s == "@" {
		return origin
	}
	o := string(origin)
	if !strings.HasSuffix(o, ".") {
		o += "."
	}
	return Name(s + "." + o)
}

func (n Name) labels() []string {
	return dns.SplitDomainName(string(n))
}

// ToWire returns the absolute, uncompressed wire form of n: length-prefixed
// labels terminated by a zero-length label, verbatim case.
func (n Name) ToWire(origin Name) []byte {
	return n.encode(origin, false)
}

// ToDigestable returns the absolute, uncompressed wire form of n with every
// label ASCII-lowercased, per RFC 4034 §6.2.
func (n Name) ToDigestable(origin Name) []byte {
	return n.encode(origin, true)
}

func (n Name) encode(origin Name, lower bool) []byte {
	abs := n.Absolute(origin)
	if string(abs) == "." {
		return []byte{0}
	}
	labels := abs.labels()
	var buf bytes.Buffer
	for _, l := range labels {
		if lower {
			l = asciiLower(l)
		}
		buf.WriteByte(byte(len(l)))
		buf.WriteString(l)
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

// LabelCount returns the number of labels in the absolute form of n,
// excluding the root label but including the wildcard label if present.
func (n Name) LabelCount(origin Name) int {
	return len(n.Absolute(origin).labels())
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// CompareCanonical orders a, b per RFC 4034 §6.1: labels compared root-first,
// octet-wise, case-insensitively; a strictly shorter common prefix sorts
// first. Returns -1, 0, or 1.
func CompareCanonical(a, b Name, origin Name) int {
	la := reverseLabels(a.Absolute(origin).labels())
	lb := reverseLabels(b.Absolute(origin).labels())
	for i := 0; i < len(la) && i < len(lb); i++ {
		if c := strings.Compare(asciiLower(la[i]), asciiLower(lb[i])); c != 0 {
			return c
		}
	}
	switch {
	case len(la) < len(lb):
		return -1
	case len(la) > len(lb):
		return 1
	default:
		return 0
	}
}

func reverseLabels(labels []string) []string {
	out := slices.Clone(labels)
	slices.Reverse(out)
	return out
}

// SortNamesCanonical sorts names in place per CompareCanonical.
func SortNamesCanonical(names []Name, origin Name) {
	sort.Slice(names, func(i, j int) bool {
		return CompareCanonical(names[i], names[j], origin) < 0
	})
}

// namesEqual reports whether two name slices are element-wise identical
// (same names in the same order).
func namesEqual(a, b []Name) bool {
	return slices.Equal(a, b)
}
