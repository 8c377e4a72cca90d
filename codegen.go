package users

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/goliatone/go-errors"
)

// CodeLength is the fixed width of verification codes.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// CodeSource produces verification codes. The default draws from crypto/rand;
// tests swap in a fixed source.
type CodeSource interface {
	VerificationCode() (string, error)
}

// SecureCodeSource generates zero-padded 6 digit codes uniformly over
// 000000-999999 from a cryptographically secure source.
type SecureCodeSource struct{}

func (SecureCodeSource) VerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

var _ CodeSource = (*SecureCodeSource)(nil)
