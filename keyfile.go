/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"
)

// bindPrivateKeyHeader mirrors the handful of fields every BIND v1.x
// private-key file carries at the top of its YAML-ish body, before the
// algorithm-specific parameter lines.
type bindPrivateKeyHeader struct {
	PrivateKeyFormat string `yaml:"Private-key-format"`
	Algorithm        string `yaml:"Algorithm"`
}

// ReadPrivateKeyFile loads a BIND-style `.key`/`.private` key pair (§6,
// §6.1). filename may name either half; the companion file is derived by
// swapping the suffix.
// Key-file text parsing is delegated to miekg/dns's DNSKEY codec (an
// external wire/text-format adapter, not a DNSSEC crypto engine); the
// actual signing and verification in this package never calls
// dns.RRSIG.Sign/Verify.
func ReadPrivateKeyFile(filename string) (*PrivateKey, error) {
	if filename == "" {
		return nil, fmt.Errorf("dnssec: filename of DNSSEC key not specified")
	}

	var pubfile, privfile string
	switch {
	case strings.HasSuffix(filename, ".key"):
		pubfile = filename
		privfile = strings.TrimSuffix(filename, ".key") + ".private"
	case strings.HasSuffix(filename, ".private"):
		privfile = filename
		pubfile = strings.TrimSuffix(filename, ".private") + ".key"
	default:
		return nil, fmt.Errorf("dnssec: filename %q does not end in .key or .private", filename)
	}

	pubBytes, err := os.ReadFile(pubfile)
	if err != nil {
		return nil, fmt.Errorf("dnssec: reading public key file %q: %w", pubfile, err)
	}

	rr, err := dns.NewRR(string(pubBytes))
	if err != nil {
		return nil, fmt.Errorf("dnssec: parsing public key %q: %w", pubfile, err)
	}
	dk, ok := rr.(*dns.DNSKEY)
	if !ok {
		return nil, fmt.Errorf("dnssec: %q is not a DNSKEY record", pubfile)
	}

	privBytes, err := os.ReadFile(privfile)
	if err != nil {
		return nil, fmt.Errorf("dnssec: reading private key file %q: %w", privfile, err)
	}

	// The BIND private-key body is a loose YAML document (field: value,
	// one per line, with algorithm-specific parameter lines the schema
	// doesn't model). Unmarshalling just the header fields lets us catch
	// a public/private algorithm mismatch before handing the bytes to
	// the DNSKEY codec.
	var header bindPrivateKeyHeader
	if err := yaml.Unmarshal(privBytes, &header); err != nil {
		return nil, fmt.Errorf("dnssec: parsing private key header %q: %w", privfile, err)
	}
	if wantAlg := dns.AlgorithmToString[dk.Algorithm]; header.Algorithm != "" && !strings.HasPrefix(header.Algorithm, fmt.Sprintf("%d ", dk.Algorithm)) && header.Algorithm != wantAlg {
		return nil, fmt.Errorf("dnssec: private key %q algorithm field %q does not match public key algorithm %s", privfile, header.Algorithm, wantAlg)
	}

	priv, err := dk.ReadPrivateKey(strings.NewReader(string(privBytes)), privfile)
	if err != nil {
		return nil, fmt.Errorf("dnssec: reading private key %q: %w", privfile, err)
	}

	if _, err := descriptorFor(Algorithm(dk.Algorithm)); err != nil {
		return nil, err
	}

	pkc := &PrivateKey{DNSKEY: dk}
	if rsaKey, ok := priv.(*rsa.PrivateKey); ok {
		pkc.RSA = rsaKey
	}
	return pkc, nil
}

// WritePrivateKeyFile writes k's public projection to <basename>.key and its
// private material to <basename>.private in the BIND v1.3 text format
// (§6), via miekg/dns's PrivateKeyString.
func WritePrivateKeyFile(k *PrivateKey, basename string) error {
	if k.RSA == nil {
		return &UnsupportedAlgorithmError{Algorithm: k.DNSKEY.Algorithm, Context: "only RSA-family private keys can be written"}
	}

	if err := os.WriteFile(basename+".key", []byte(k.DNSKEY.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("dnssec: writing public key file: %w", err)
	}

	body := k.DNSKEY.PrivateKeyString(k.RSA)
	if err := os.WriteFile(basename+".private", []byte(body), 0o600); err != nil {
		return fmt.Errorf("dnssec: writing private key file: %w", err)
	}
	return nil
}

// PrivateKeyFilename implements §6's auto-generated filename convention:
// K<domain>.+<algo:03>+<tag:05>.private
func PrivateKeyFilename(domain Name, algorithm Algorithm, tag uint16) string {
	return fmt.Sprintf("K%s.+%03d+%05d.private", string(domain), uint8(algorithm), tag)
}
