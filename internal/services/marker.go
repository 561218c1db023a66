package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// MarkerKey holds the encoded identity of the last logged-in user.
	MarkerKey = "current_identity"
	// MarkerSigningKey holds the HMAC key used by JWTMarker.
	MarkerSigningKey = "marker_key"
)

// KV is the slice of metadata.Repository used by the services.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MarkerCodec turns an identity into the persisted marker and back.
type MarkerCodec interface {
	Encode(id models.UserIdentity) ([]byte, error)
	Decode(data []byte) (models.UserIdentity, error)
}

// JSONMarker stores the identity as plain JSON.
type JSONMarker struct{}

func (JSONMarker) Encode(id models.UserIdentity) ([]byte, error) {
	return json.Marshal(id)
}

func (JSONMarker) Decode(data []byte) (models.UserIdentity, error) {
	var id models.UserIdentity
	if err := json.Unmarshal(data, &id); err != nil {
		return models.UserIdentity{}, fmt.Errorf("%w: %v", common.ErrCorrupted, err)
	}
	if id.Username == "" {
		return models.UserIdentity{}, fmt.Errorf("%w: marker without username", common.ErrCorrupted)
	}
	return id, nil
}

type identityClaims struct {
	ExternalID string    `json:"ext"`
	LoginAt    time.Time `json:"login_at"`
	jwt.RegisteredClaims
}

// JWTMarker stores the identity as an HS256 token. The token carries no
// expiry: restore still trusts the marker, the signature only makes a
// hand-edited marker detectable.
type JWTMarker struct {
	key []byte
}

func NewJWTMarker(key []byte) *JWTMarker {
	return &JWTMarker{key: key}
}

func (m *JWTMarker) Encode(id models.UserIdentity) ([]byte, error) {
	claims := identityClaims{
		ExternalID: id.ExternalID,
		LoginAt:    id.LoginTimestamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.Username,
			IssuedAt: jwt.NewNumericDate(id.LoginTimestamp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return nil, fmt.Errorf("sign marker: %w", err)
	}
	return []byte(s), nil
}

func (m *JWTMarker) Decode(data []byte) (models.UserIdentity, error) {
	var claims identityClaims
	_, err := jwt.ParseWithClaims(string(data), &claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.UserIdentity{}, fmt.Errorf("%w: %v", common.ErrCorrupted, err)
	}
	if claims.Subject == "" {
		return models.UserIdentity{}, fmt.Errorf("%w: marker without subject", common.ErrCorrupted)
	}
	return models.UserIdentity{
		Username:       claims.Subject,
		ExternalID:     claims.ExternalID,
		LoginTimestamp: claims.LoginAt,
	}, nil
}

// LoadOrCreateSigningKey returns the persisted marker key, generating and
// storing a random 32-byte key on first use.
func LoadOrCreateSigningKey(ctx context.Context, kv KV) ([]byte, error) {
	key, err := kv.Get(ctx, MarkerSigningKey)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 {
		return key, nil
	}
	key = common.GenerateRandByteArray(32)
	if err := kv.Set(ctx, MarkerSigningKey, key); err != nil {
		return nil, err
	}
	return key, nil
}

// MarkerStore persists the "current identity" marker.
type MarkerStore struct {
	kv    KV
	codec MarkerCodec
}

func NewMarkerStore(kv KV, codec MarkerCodec) *MarkerStore {
	return &MarkerStore{kv: kv, codec: codec}
}

func (m *MarkerStore) Save(ctx context.Context, id models.UserIdentity) error {
	data, err := m.codec.Encode(id)
	if err != nil {
		return err
	}
	if err := m.kv.Set(ctx, MarkerKey, data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

// Load returns the stored identity. ok is false when no marker exists.
func (m *MarkerStore) Load(ctx context.Context) (id models.UserIdentity, ok bool, err error) {
	data, err := m.kv.Get(ctx, MarkerKey)
	if err != nil {
		return models.UserIdentity{}, false, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if len(data) == 0 {
		return models.UserIdentity{}, false, nil
	}
	id, err = m.codec.Decode(data)
	if err != nil {
		return models.UserIdentity{}, false, err
	}
	return id, true, nil
}

func (m *MarkerStore) Clear(ctx context.Context) error {
	if err := m.kv.Delete(ctx, MarkerKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

// isCorrupted is a small helper for callers that want to drop bad markers.
func isCorrupted(err error) bool {
	return errors.Is(err, common.ErrCorrupted)
}
