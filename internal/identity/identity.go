// Package identity derives a best-effort per-voter identity from request
// metadata. Derivation is pure: persistence of the token (as a cookie) is the
// caller's job.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// Identity represents one voter as seen by the eligibility gate.
type Identity struct {
	// Token is the opaque voter credential. If the request carried no prior
	// token, a fresh one is minted and Present is false.
	Token string

	// Present reports whether the token was already issued to this voter.
	Present bool

	// DeviceHash is a one-way hash of user-agent and source address. It is a
	// secondary signal only and never blocks a vote by itself.
	DeviceHash string

	// Addr is the originating address, recorded with the vote.
	Addr string
}

// Derive builds an Identity from an optional previously issued token and
// request metadata. New tokens are random uuid4 values (128-bit).
func Derive(priorToken, userAgent, addr string) Identity {
	id := Identity{
		Token:      priorToken,
		Present:    priorToken != "",
		DeviceHash: DeviceHash(userAgent, addr),
		Addr:       addr,
	}
	if !id.Present {
		id.Token = uuid.NewString()
	}
	return id
}

// DeviceHash returns hex(SHA-256(userAgent + ":" + addr)).
func DeviceHash(userAgent, addr string) string {
	sum := sha256.Sum256([]byte(userAgent + ":" + addr))
	return hex.EncodeToString(sum[:])
}
