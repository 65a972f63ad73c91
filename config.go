/*
 * Copyright (c) 2024 Johan Stenstam, johan.stenstam@internetstiftelsen.se
 */
package dnssec

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SignerPolicy describes signing defaults (key TTL, signature lifetime,
// NSEC3 settings), validated via struct tags. SignZone does not read a
// SignerPolicy; DefaultSignerPolicy returns the same values SignZone uses
// when SignZoneOptions leaves them zero.
type SignerPolicy struct {
	KeyTTL            uint32 `validate:"required"`
	SignatureLifetime uint32 `validate:"required"` // seconds
	NSEC3             bool
	NSEC3Iterations   uint16 `validate:"lte=2500"` // RFC 5155 recommends bounding iterations
	NSEC3SaltLength   uint8  `validate:"lte=255"`
}

// DefaultSignerPolicy mirrors §4.10's literal defaults: key_ttl=3600,
// expiration = now+90d, NSEC (not NSEC3), NSEC3 iterations=10 when enabled.
func DefaultSignerPolicy() SignerPolicy {
	return SignerPolicy{
		KeyTTL:            defaultKeyTTL,
		SignatureLifetime: uint32(defaultSignatureLifetime.Seconds()),
		NSEC3:             false,
		NSEC3Iterations:   defaultNSEC3Iterations,
		NSEC3SaltLength:   defaultNSEC3SaltLen,
	}
}

// Validate checks a SignerPolicy's struct tags with go-playground/validator.
func (p SignerPolicy) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return fmt.Errorf("invalid signer policy: %w", err)
	}
	return nil
}
