package crm

import (
	"strings"
	"unicode"
)

// minPhoneDigits is the shortest digit string treated as a usable phone.
const minPhoneDigits = 7

// NormalizeEmail lowercases and trims an email for duplicate matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone number to its digits, dropping a leading
// North American country code. Inputs with too few digits normalise to "".
func NormalizePhone(phone string) string {
	digits := DigitsOnly(phone)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < minPhoneDigits {
		return ""
	}
	return digits
}

// DigitsOnly strips everything but digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DuplicateKey is what two leads must share to be the same person.
type DuplicateKey struct {
	Email string
	Phone string
}

// NewDuplicateKey normalises raw contact fields.
func NewDuplicateKey(email, phone string) DuplicateKey {
	return DuplicateKey{Email: NormalizeEmail(email), Phone: NormalizePhone(phone)}
}

// IsEmpty is true when there is nothing to match on.
func (k DuplicateKey) IsEmpty() bool {
	return k.Email == "" && k.Phone == ""
}

// Matches reports whether c shares the email or phone of the key.
func (k DuplicateKey) Matches(c *Customer) bool {
	if k.Email != "" && k.Email == c.EmailNormalized {
		return true
	}
	return k.Phone != "" && k.Phone == c.PhoneNormalized
}
