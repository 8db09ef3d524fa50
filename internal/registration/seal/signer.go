package seal

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	dErrors "landrec/pkg/domain-errors"
)

// Signer produces the digital seal for a digest using the office's own
// credentials. Implementations are chosen at startup.
type Signer interface {
	SignTextWithSystemCredentials(ctx context.Context, text string) (string, error)
	SignerID() string
}

const keyInfo = "landrec land record seal"

// Claims is the body of a seal token. It carries no issue time so that the
// same digest signed with the same key yields the same seal.
type Claims struct {
	Digest string `json:"digest"`
	jwt.RegisteredClaims
}

// JWTSigner seals digests as HS256 compact JWS. The HMAC key is derived from
// the configured secret with HKDF, salted with the office name.
type JWTSigner struct {
	key      []byte
	office   string
	signerID string
}

func NewJWTSigner(secret, office, signerID string) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("seal secret is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(office), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	return &JWTSigner{key: key, office: office, signerID: signerID}, nil
}

func (s *JWTSigner) SignerID() string {
	return s.signerID
}

func (s *JWTSigner) SignTextWithSystemCredentials(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Digest: text,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  s.office,
			Subject: s.signerID,
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign seal: %w", err)
	}
	return signed, nil
}

// Verify checks that seal was produced by this office for text.
func (s *JWTSigner) Verify(sealToken, text string) error {
	parsed, err := jwt.ParseWithClaims(sealToken, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.key, nil
	}, jwt.WithIssuer(s.office))
	if err != nil || !parsed.Valid {
		return dErrors.New(dErrors.CodeValidation, "invalid seal")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Digest != text {
		return dErrors.New(dErrors.CodeValidation, "seal does not match land record content")
	}
	return nil
}
