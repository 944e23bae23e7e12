// Package secret produces the random values used by the credential flows:
// emailed numeric passcodes, TOTP enrollment keys, backup codes, and the
// digests under which refresh tokens are whitelisted.
package secret

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image/png"
	"math/big"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// BackupCodeCount is the size of a freshly issued backup-code set.
	BackupCodeCount = 10
	backupCodeBytes = 4

	// TOTPSkew is the number of 30s steps accepted on either side of now.
	TOTPSkew = 2

	qrSize = 200
)

var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      TOTPSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// NumericOTP returns a 6-digit code sampled uniformly over 100000-999999.
func NumericOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Enrollment is a fresh TOTP key ready to be shown to the user.
type Enrollment struct {
	Secret string
	URL    string
	// QRCode is a PNG data URL of URL.
	QRCode string
}

// NewTOTP generates a base32 TOTP secret bound to issuer and the account label.
func NewTOTP(issuer, account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("render totp qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr code: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// ValidateTOTP checks a 6-digit code against secret at time t, accepting
// TOTPSkew steps of drift in either direction.
func ValidateTOTP(code, secret string, t time.Time) bool {
	if secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.UTC(), totpOpts)
	return err == nil && ok
}

// TOTPCode computes the code for secret at time t.
func TOTPCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), totpOpts)
}

// BackupCodes returns n distinct 8-character uppercase hex codes.
func BackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	buf := make([]byte, backupCodeBytes)
	for len(codes) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// MatchBackupCode returns the index of candidate in codes, ignoring case, or -1.
func MatchBackupCode(codes []string, candidate string) int {
	want := []byte(strings.ToUpper(strings.TrimSpace(candidate)))
	idx := -1
	for i, c := range codes {
		if subtle.ConstantTimeCompare([]byte(strings.ToUpper(c)), want) == 1 && idx < 0 {
			idx = i
		}
	}
	return idx
}

// Equal compares two short secrets in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashToken returns the hex SHA-256 digest of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
