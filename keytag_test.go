package dnssec

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"

	"github.com/miekg/dns"
)

func makeTestRSADNSKEY(t *testing.T, bits int, sep bool) (*dns.DNSKEY, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("generating test RSA key: %v", err)
	}

	flags := uint16(dns.ZONE)
	if sep {
		flags |= dns.SEP
	}

	dk := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   "example.",
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    3600,
		},
		Flags:     flags,
		Protocol:  3,
		Algorithm: uint8(AlgorithmRSASHA256),
	}
	pub := priv.PublicKey
	exp := big3110Exponent(pub.E)
	mod := pub.N.Bytes()
	keyField := append(exp, mod...)
	dk.PublicKey = base64.StdEncoding.EncodeToString(keyField)

	return dk, priv
}

func big3110Exponent(e int) []byte {
	// Small exponents (e.g. 65537) fit in 3 bytes: RFC 3110 one-octet
	// length L followed by the L-byte exponent.
	eb := make([]byte, 0, 4)
	v := e
	for v > 0 {
		eb = append([]byte{byte(v & 0xFF)}, eb...)
		v >>= 8
	}
	return append([]byte{byte(len(eb))}, eb...)
}

func TestKeyTagStableUnderRepeatedComputation(t *testing.T) {
	origin := Name("example.")
	dk, _ := makeTestRSADNSKEY(t, 1024, true)

	tag1, err := KeyTag(dk, origin)
	if err != nil {
		t.Fatalf("KeyTag: %v", err)
	}
	tag2, err := KeyTag(dk, origin)
	if err != nil {
		t.Fatalf("KeyTag (second call, cached): %v", err)
	}
	if tag1 != tag2 {
		t.Fatalf("key tag not stable: %d vs %d", tag1, tag2)
	}
}

func TestKeyTagRejectsRSAMD5(t *testing.T) {
	origin := Name("example.")
	dk := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: "example.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET},
		Flags:     dns.ZONE,
		Protocol:  3,
		Algorithm: uint8(AlgorithmRSAMD5),
		PublicKey: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	}
	if _, err := KeyTag(dk, origin); err == nil {
		t.Fatalf("expected UnsupportedAlgorithmError for RSAMD5, got nil")
	}
}
