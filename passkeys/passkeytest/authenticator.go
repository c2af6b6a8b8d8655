// Package passkeytest provides a software authenticator and the behaviour
// checks every passkeys.Repo must pass.
package passkeytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/go-webauthn/webauthn/protocol/webauthncbor"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/stretchr/testify/require"
)

// Authenticator holds a P-256 key and signs assertions the way a platform
// authenticator would.
type Authenticator struct {
	CredentialID string
	key          *ecdsa.PrivateKey
}

func NewAuthenticator(t *testing.T, credentialID string) *Authenticator {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return &Authenticator{CredentialID: credentialID, key: key}
}

// COSEKey returns the ES256 public key as a COSE_Key
func (a *Authenticator) COSEKey(t *testing.T) []byte {
	t.Helper()
	cose := webauthncose.EC2PublicKeyData{
		PublicKeyData: webauthncose.PublicKeyData{
			KeyType:   int64(webauthncose.EllipticKey),
			Algorithm: int64(webauthncose.AlgES256),
		},
		Curve:  int64(webauthncose.P256),
		XCoord: a.key.PublicKey.X.FillBytes(make([]byte, 32)),
		YCoord: a.key.PublicKey.Y.FillBytes(make([]byte, 32)),
	}
	encoded, err := webauthncbor.Marshal(cose)
	require.NoError(t, err)
	return encoded
}

// Registration enrols the key with the given starting counter
func (a *Authenticator) Registration(t *testing.T, counter uint32) passkeys.Registration {
	return passkeys.Registration{
		CredentialID: a.CredentialID,
		PublicKey:    a.COSEKey(t),
		Counter:      counter,
		DeviceType:   "platform",
	}
}

// Assert signs challenge at counter
func (a *Authenticator) Assert(t *testing.T, challenge []byte, counter uint32) passkeys.Assertion {
	t.Helper()
	digest := sha256.Sum256(passkeys.SignedPayload(challenge, counter))
	sig, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	require.NoError(t, err)
	return passkeys.Assertion{
		CredentialID: a.CredentialID,
		Counter:      counter,
		Challenge:    challenge,
		Signature:    sig,
	}
}
