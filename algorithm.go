/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto"
	"fmt"
	"strconv"
	"strings"
)

// Algorithm is a DNSSEC algorithm number (RFC 4034 Appendix A.1).
type Algorithm uint8

const (
	AlgorithmRSAMD5           Algorithm = 1
	AlgorithmDH               Algorithm = 2
	AlgorithmDSA              Algorithm = 3
	AlgorithmRSASHA1          Algorithm = 5
	AlgorithmDSANSEC3SHA1     Algorithm = 6
	AlgorithmRSASHA1NSEC3SHA1 Algorithm = 7
	AlgorithmRSASHA256        Algorithm = 8
	AlgorithmRSASHA512        Algorithm = 10
	AlgorithmECCGOST          Algorithm = 12
	AlgorithmECDSAP256SHA256  Algorithm = 13
	AlgorithmECDSAP384SHA384  Algorithm = 14
	AlgorithmINDIRECT         Algorithm = 252
	AlgorithmPRIVATEDNS       Algorithm = 253
	AlgorithmPRIVATEOID       Algorithm = 254
)

var algorithmToText = map[Algorithm]string{
	AlgorithmRSAMD5:           "RSAMD5",
	AlgorithmDH:               "DH",
	AlgorithmDSA:              "DSA",
	AlgorithmRSASHA1:          "RSASHA1",
	AlgorithmDSANSEC3SHA1:     "DSANSEC3SHA1",
	AlgorithmRSASHA1NSEC3SHA1: "RSASHA1NSEC3SHA1",
	AlgorithmRSASHA256:        "RSASHA256",
	AlgorithmRSASHA512:        "RSASHA512",
	AlgorithmECCGOST:          "ECCGOST",
	AlgorithmECDSAP256SHA256:  "ECDSAP256SHA256",
	AlgorithmECDSAP384SHA384:  "ECDSAP384SHA384",
	AlgorithmINDIRECT:         "INDIRECT",
	AlgorithmPRIVATEDNS:       "PRIVATEDNS",
	AlgorithmPRIVATEOID:       "PRIVATEOID",
}

var textToAlgorithm = func() map[string]Algorithm {
	m := make(map[string]Algorithm, len(algorithmToText))
	for n, s := range algorithmToText {
		m[s] = n
	}
	return m
}()

// AlgorithmFromText parses a DNSSEC algorithm mnemonic, falling back to
// integer parsing when the text isn't a recognised mnemonic.
func AlgorithmFromText(s string) (Algorithm, error) {
	if a, ok := textToAlgorithm[strings.ToUpper(s)]; ok {
		return a, nil
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return Algorithm(n), nil
	}
	return 0, &UnsupportedAlgorithmError{Context: fmt.Sprintf("unknown algorithm mnemonic %q", s)}
}

// AlgorithmToText renders a DNSSEC algorithm number as its mnemonic, or its
// decimal form when unrecognised.
func AlgorithmToText(a Algorithm) string {
	if s, ok := algorithmToText[a]; ok {
		return s
	}
	return strconv.Itoa(int(a))
}

// algDescriptor is the tagged-variant dispatch table for the algorithms this
// package actually implements signing/verification for: the trait/interface
// described in the design notes (hash_new, key_parse, verify, sign), rather
// than a scatter of boolean predicates at call sites.
type algDescriptor struct {
	hash     crypto.Hash
	isDSA    bool
	isNSEC3  bool
	signable bool // whether sign_rrset supports this algorithm
}

var algDescriptors = map[Algorithm]algDescriptor{
	AlgorithmRSASHA1:          {hash: crypto.SHA1, signable: true},
	AlgorithmRSASHA1NSEC3SHA1: {hash: crypto.SHA1, isNSEC3: true, signable: true},
	AlgorithmRSASHA256:        {hash: crypto.SHA256, signable: true},
	AlgorithmRSASHA512:        {hash: crypto.SHA512, signable: true},
	AlgorithmDSA:              {hash: crypto.SHA1, isDSA: true},
	AlgorithmDSANSEC3SHA1:     {hash: crypto.SHA1, isDSA: true, isNSEC3: true},
}

func descriptorFor(a Algorithm) (algDescriptor, error) {
	d, ok := algDescriptors[a]
	if !ok {
		return algDescriptor{}, &UnsupportedAlgorithmError{Algorithm: uint8(a), Context: "not RSA or DSA"}
	}
	return d, nil
}

// isRSA reports whether the algorithm's public-key material is parsed per
// RFC 3110 (the complement of isDSA among the algorithms we support).
func (d algDescriptor) isRSA() bool { return !d.isDSA }
