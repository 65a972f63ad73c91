package dnssec

import (
	"crypto/sha1"
	"testing"
)

func TestBase32HexRoundTrip(t *testing.T) {
	in := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	enc := base32HexEncode(in)
	for _, c := range enc {
		found := false
		for _, a := range base32HexAlphabet {
			if a == c {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("encoded character %q not in base32-hex alphabet", c)
		}
	}
	dec, err := base32HexDecode(enc)
	if err != nil {
		t.Fatalf("base32HexDecode: %v", err)
	}
	if string(dec) != string(in) {
		t.Fatalf("round trip mismatch: got %x, want %x", dec, in)
	}
}

func TestHashNSEC3NamesDeterministic(t *testing.T) {
	origin := Name("example.")
	names := []Name{Name("example."), Name("www.example."), Name("mail.example.")}
	salt := []byte{0x05, 0xD6, 0x7B, 0xB3, 0xFE, 0x7B, 0xF9, 0x07}

	h1, err := HashNSEC3Names(names, origin, salt, 10)
	if err != nil {
		t.Fatalf("HashNSEC3Names: %v", err)
	}
	h2, err := HashNSEC3Names(names, origin, salt, 10)
	if err != nil {
		t.Fatalf("HashNSEC3Names (second call): %v", err)
	}

	if len(h1) != len(h2) {
		t.Fatalf("non-deterministic length: %d vs %d", len(h1), len(h2))
	}
	for i := range h1 {
		if h1[i].Name != h2[i].Name || string(h1[i].Hash) != string(h2[i].Hash) {
			t.Fatalf("non-deterministic hash at %d: %+v vs %+v", i, h1[i], h2[i])
		}
	}

	// Strictly increasing modulo wraparound: consecutive hashes differ.
	for i := 1; i < len(h1); i++ {
		if string(h1[i-1].Hash) >= string(h1[i].Hash) {
			t.Fatalf("hashes not sorted ascending at %d", i)
		}
	}
}

func TestHashNSEC3ZeroIterations(t *testing.T) {
	// With iterations=0 there must still be exactly one SHA1 application
	// (the unsalted initial hash); verify this matches the direct
	// computation rather than skipping the hash entirely.
	origin := Name("example.")
	names := []Name{Name("example.")}
	salt := []byte{0xAA}

	hashed, err := HashNSEC3Names(names, origin, salt, 0)
	if err != nil {
		t.Fatalf("HashNSEC3Names: %v", err)
	}
	if len(hashed) != 1 {
		t.Fatalf("expected 1 hashed name, got %d", len(hashed))
	}
	want := sha1.Sum(Name("example.").ToDigestable(origin))
	if string(hashed[0].Hash) != string(want[:]) {
		t.Fatalf("hash mismatch: got %x, want %x", hashed[0].Hash, want)
	}
}

func TestHashNSEC3ExpandsEmptyNonTerminals(t *testing.T) {
	origin := Name("example.")
	// a.b.c.example. has two empty non-terminal ancestors under the
	// origin: b.c.example. and c.example.
	names := []Name{Name("a.b.c.example.")}
	salt := []byte{}

	hashed, err := HashNSEC3Names(names, origin, salt, 0)
	if err != nil {
		t.Fatalf("HashNSEC3Names: %v", err)
	}
	if len(hashed) != 3 {
		t.Fatalf("expected 3 names (original + 2 empty non-terminals), got %d", len(hashed))
	}
}
