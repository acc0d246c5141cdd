// Package password hashes gallery secrets with an adaptive, salted algorithm.
package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	KindBcrypt   = "bcrypt"
	KindArgon2id = "argon2id"
)

var ErrUnknownHasher = errors.New("unknown password hasher")

type Hasher interface {
	Hash(plain string) (string, error)
	// Verify reports whether plain matches encodedHash. A mismatch is not an error.
	Verify(plain, encodedHash string) (bool, error)
}

func New(kind string, bcryptCost int) (Hasher, error) {
	switch kind {
	case "", KindBcrypt:
		return NewBcrypt(bcryptCost), nil
	case KindArgon2id:
		return NewArgon2id(argon2id.DefaultParams), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, kind)
	}
}

type BcryptHasher struct {
	cost int
}

func NewBcrypt(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plain, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2id(p *argon2id.Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash возвращает строку формата $argon2id$v=19$m=..., которую можно хранить в БД.
func (h *Argon2idHasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

func (h *Argon2idHasher) Verify(plain, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}
