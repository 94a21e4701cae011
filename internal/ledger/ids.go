package ledger

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	UserIDPrefix        = "usr-"
	TransactionIDPrefix = "tan-"

	// DefaultIDAttempts bounds how many times a colliding identifier is
	// re-drawn before giving up.
	DefaultIDAttempts = 8

	idSuffixLength = 6
	idAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// IDGenerator produces prefixed random identifiers. Uniqueness is not
// guaranteed; callers check for collisions before committing.
type IDGenerator interface {
	NewUserID() (string, error)
	NewTransactionID() (string, error)
}

// RandomIDGenerator draws identifier characters uniformly from a
// cryptographically secure source. Safe for concurrent use.
type RandomIDGenerator struct {
	source io.Reader
}

func NewRandomIDGenerator() *RandomIDGenerator {
	return &RandomIDGenerator{source: rand.Reader}
}

func (g *RandomIDGenerator) NewUserID() (string, error) {
	return g.generate(UserIDPrefix)
}

func (g *RandomIDGenerator) NewTransactionID() (string, error) {
	return g.generate(TransactionIDPrefix)
}

func (g *RandomIDGenerator) generate(prefix string) (string, error) {
	alphabetSize := big.NewInt(int64(len(idAlphabet)))

	var b strings.Builder
	b.Grow(len(prefix) + idSuffixLength)
	b.WriteString(prefix)
	for range idSuffixLength {
		n, err := rand.Int(g.source, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		b.WriteByte(idAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// IsValidID reports whether id has the given prefix followed by exactly six
// alphanumeric characters.
func IsValidID(id, prefix string) bool {
	suffix, ok := strings.CutPrefix(id, prefix)
	if !ok || len(suffix) != idSuffixLength {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if strings.IndexByte(idAlphabet, suffix[i]) < 0 {
			return false
		}
	}
	return true
}

// issueUnique draws from next until taken reports the id as free.
func issueUnique(prefix string, attempts int, next func() (string, error), taken func(string) bool) (string, error) {
	for range attempts {
		id, err := next()
		if err != nil {
			return "", err
		}
		if !taken(id) {
			return id, nil
		}
	}
	return "", &IdentifierCollisionError{Prefix: prefix, Attempts: attempts}
}
