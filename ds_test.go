package dnssec

import (
	"crypto/sha256"
	"testing"
)

func TestMakeDSMatchesManualDigest(t *testing.T) {
	origin := Name("example.")
	owner := Name("example.")
	dk, _ := makeTestRSADNSKEY(t, 1024, true)

	ds, err := MakeDS(owner, dk, origin, DigestSHA256)
	if err != nil {
		t.Fatalf("MakeDS: %v", err)
	}

	keyWire, err := RdataToWire(dk, origin)
	if err != nil {
		t.Fatalf("RdataToWire: %v", err)
	}
	stream := append(owner.ToDigestable(origin), keyWire...)
	want := sha256.Sum256(stream)

	if string(ds.Digest) != string(want[:]) {
		t.Fatalf("DS digest mismatch:\n got  %x\n want %x", ds.Digest, want)
	}
	if ds.DigestType != DigestSHA256 {
		t.Fatalf("DigestType = %d, want SHA256", ds.DigestType)
	}
	if ds.Algorithm != dk.Algorithm {
		t.Fatalf("Algorithm = %d, want %d", ds.Algorithm, dk.Algorithm)
	}

	tag, err := KeyTag(dk, origin)
	if err != nil {
		t.Fatalf("KeyTag: %v", err)
	}
	if ds.KeyTag != tag {
		t.Fatalf("DS key tag %d does not match key_tag(dnskey) %d", ds.KeyTag, tag)
	}
}

func TestDigestTypeFromText(t *testing.T) {
	if dt, err := DigestTypeFromText("sha1"); err != nil || dt != DigestSHA1 {
		t.Fatalf("DigestTypeFromText(sha1) = %v, %v", dt, err)
	}
	if dt, err := DigestTypeFromText("SHA256"); err != nil || dt != DigestSHA256 {
		t.Fatalf("DigestTypeFromText(SHA256) = %v, %v", dt, err)
	}
	if _, err := DigestTypeFromText("SHA512"); err == nil {
		t.Fatalf("expected error for unsupported digest type SHA512")
	}
}
