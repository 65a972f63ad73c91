package dnssec

import (
	"reflect"
	"sort"
	"testing"

	"github.com/miekg/dns"
)

func TestTypeBitmapRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		types []uint16
	}{
		{"single low type", []uint16{dns.TypeA}},
		{"nsec apex set", []uint16{dns.TypeA, dns.TypeNS, dns.TypeSOA, dns.TypeRRSIG, dns.TypeNSEC, dns.TypeDNSKEY}},
		{"spans three windows", []uint16{1, 255, 256, 257, 512}},
		{"high window only", []uint16{dns.TypeCAA}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			wire := EncodeTypeBitmap(c.types)
			got := DecodeTypeBitmap(wire)

			want := append([]uint16(nil), c.types...)
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch: want %v, got %v", want, got)
			}
		})
	}
}

func TestTypeBitmapTrimsTrailingZeroBytes(t *testing.T) {
	// Type 0 and type 7 share window 0; nothing above bit 7 is set, so the
	// encoded window bitmap must be exactly one byte, not the full 32.
	wire := EncodeTypeBitmap([]uint16{0, 7})
	if len(wire) != 2+1 {
		t.Fatalf("expected window header (2 bytes) + 1 trimmed bitmap byte, got %d bytes: %x", len(wire), wire)
	}
	if wire[1] != 1 {
		t.Fatalf("expected trimmed bitmap length 1, got %d", wire[1])
	}
}

func TestTypeBitmapEmpty(t *testing.T) {
	if wire := EncodeTypeBitmap(nil); wire != nil {
		t.Fatalf("expected nil wire for empty type set, got %x", wire)
	}
}
