/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/miekg/dns"
)

// nameBearingTypes per RFC 4034 §6.2: RDATA of these types embeds domain
// names that must be lower-cased in their canonical wire form.
var nameBearingTypes = map[uint16]bool{
	dns.TypeNS:     true,
	dns.TypeCNAME:  true,
	dns.TypeSOA:    true,
	dns.TypeMB:     true,
	dns.TypeMG:     true,
	dns.TypeMR:     true,
	dns.TypePTR:    true,
	dns.TypeMINFO:  true,
	dns.TypeMX:     true,
	dns.TypeRP:     true,
	dns.TypeAFSDB:  true,
	dns.TypeRT:     true,
	dns.TypePX:     true,
	dns.TypeNAPTR:  true,
	dns.TypeKX:     true,
	dns.TypeSRV:    true,
	dns.TypeDNAME:  true,
	dns.TypeRRSIG:  true,
}

// RdataToWire renders rr's RDATA in canonical wire form: absolute, names
// within the RDATA lower-cased when rr's type is one of the §6.2 types that
// carries embedded names, wire form used verbatim otherwise.
func RdataToWire(rr dns.RR, origin Name) ([]byte, error) {
	lower := nameBearingTypes[rr.Header().Rrtype]
	return rdataWire(rr, origin, lower)
}

func rdataWire(rr dns.RR, origin Name, lower bool) ([]byte, error) {
	nm := func(s string) []byte {
		n := Name(s)
		if lower {
			return n.ToDigestable(origin)
		}
		return n.ToWire(origin)
	}

	var buf bytes.Buffer

	switch v := rr.(type) {
	case *dns.A:
		ip := v.A.To4()
		if ip == nil {
			return nil, fmt.Errorf("rdata: invalid A address %v", v.A)
		}
		buf.Write(ip)

	case *dns.AAAA:
		ip := v.AAAA.To16()
		if ip == nil {
			return nil, fmt.Errorf("rdata: invalid AAAA address %v", v.AAAA)
		}
		buf.Write(ip)

	case *dns.NS:
		buf.Write(nm(v.Ns))

	case *dns.CNAME:
		buf.Write(nm(v.Target))

	case *dns.DNAME:
		buf.Write(nm(v.Target))

	case *dns.PTR:
		buf.Write(nm(v.Ptr))

	case *dns.SOA:
		buf.Write(nm(v.Ns))
		buf.Write(nm(v.Mbox))
		writeU32(&buf, v.Serial)
		writeU32(&buf, v.Refresh)
		writeU32(&buf, v.Retry)
		writeU32(&buf, v.Expire)
		writeU32(&buf, v.Minttl)

	case *dns.MX:
		writeU16(&buf, v.Preference)
		buf.Write(nm(v.Mx))

	case *dns.SRV:
		writeU16(&buf, v.Priority)
		writeU16(&buf, v.Weight)
		writeU16(&buf, v.Port)
		buf.Write(nm(v.Target))

	case *dns.TXT:
		for _, s := range v.Txt {
			chunks := chunk255(s)
			for _, c := range chunks {
				buf.WriteByte(byte(len(c)))
				buf.WriteString(c)
			}
		}

	case *dns.DS:
		writeU16(&buf, v.KeyTag)
		buf.WriteByte(v.Algorithm)
		buf.WriteByte(v.DigestType)
		digest, err := hexDecode(v.Digest)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad DS digest: %w", err)
		}
		buf.Write(digest)

	case *dns.DNSKEY:
		writeU16(&buf, v.Flags)
		buf.WriteByte(v.Protocol)
		buf.WriteByte(v.Algorithm)
		key, err := base64.StdEncoding.DecodeString(v.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad DNSKEY public key: %w", err)
		}
		buf.Write(key)

	case *dns.RRSIG:
		writeU16(&buf, v.TypeCovered)
		buf.WriteByte(v.Algorithm)
		buf.WriteByte(v.Labels)
		writeU32(&buf, v.OrigTtl)
		writeU32(&buf, v.Expiration)
		writeU32(&buf, v.Inception)
		writeU16(&buf, v.KeyTag)
		buf.Write(nm(v.SignerName))
		sig, err := base64.StdEncoding.DecodeString(v.Signature)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad RRSIG signature: %w", err)
		}
		buf.Write(sig)

	case *dns.NSEC:
		buf.Write(Name(v.NextDomain).ToWire(origin))
		buf.Write(EncodeTypeBitmap(v.TypeBitMap))

	case *dns.NSEC3:
		buf.WriteByte(v.Hash)
		buf.WriteByte(v.Flags)
		writeU16(&buf, v.Iterations)
		salt, err := hexDecode(v.Salt)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad NSEC3 salt: %w", err)
		}
		buf.WriteByte(byte(len(salt)))
		buf.Write(salt)
		next, err := base32HexDecode(v.NextDomain)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad NSEC3 next-hashed-owner: %w", err)
		}
		buf.WriteByte(byte(len(next)))
		buf.Write(next)
		buf.Write(EncodeTypeBitmap(v.TypeBitMap))

	case *dns.NSEC3PARAM:
		buf.WriteByte(v.Hash)
		buf.WriteByte(v.Flags)
		writeU16(&buf, v.Iterations)
		salt, err := hexDecode(v.Salt)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad NSEC3PARAM salt: %w", err)
		}
		buf.WriteByte(byte(len(salt)))
		buf.Write(salt)

	case *dns.KEY:
		writeU16(&buf, v.Flags)
		buf.WriteByte(v.Protocol)
		buf.WriteByte(v.Algorithm)
		key, err := base64.StdEncoding.DecodeString(v.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("rdata: bad KEY public key: %w", err)
		}
		buf.Write(key)

	default:
		return nil, fmt.Errorf("rdata: unsupported RR type %s", dns.TypeToString[rr.Header().Rrtype])
	}

	return buf.Bytes(), nil
}

func chunk255(s string) []string {
	if len(s) <= 255 {
		return []string{s}
	}
	var out []string
	for len(s) > 255 {
		out = append(out, s[:255])
		s = s[255:]
	}
	return append(out, s)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func writeU32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func hexDecode(s string) ([]byte, error) {
	return decodeHexStrict(s)
}

func decodeHexStrict(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexVal(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexVal(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}
