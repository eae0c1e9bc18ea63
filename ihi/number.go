package ihi

import (
	"strings"
	"unicode"
)

// IHIPrefix is the issuer prefix common to all individual healthcare identifiers
const IHIPrefix = "800360"

// IsValidIHI validates an IHI number: 16 digits, starting with 800360, with a Luhn check digit.
// Spaces are ignored.
// Note: the search validator does not call this; the HI Service is the authority on whether
// an IHI exists.
func IsValidIHI(ihi string) bool {
	s := strings.ReplaceAll(ihi, " ", "")
	if len(s) != 16 || !strings.HasPrefix(s, IHIPrefix) {
		return false
	}
	return luhn(s)
}

// FormatIHI returns a formatted IHI number with spaces
// e.g. 8003608833357361 -> 8003 6088 3335 7361
func FormatIHI(ihi string) string {
	s := strings.ReplaceAll(ihi, " ", "")
	if len(s) != 16 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < 16; i += 4 {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(s[i : i+4])
	}
	return sb.String()
}

func luhn(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := rune(s[i])
		if !unicode.IsDigit(c) {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

var medicareWeights = [...]int{1, 3, 7, 9, 1, 3, 7, 9}

// IsValidMedicareCardNumber validates a 10-digit Medicare card number: the first digit
// must be in the range 2-6 and the ninth digit is a weighted checksum of the first eight.
// The tenth digit is the card issue number. Spaces are ignored.
func IsValidMedicareCardNumber(mcn string) bool {
	s := strings.ReplaceAll(mcn, " ", "")
	if len(s) != 10 {
		return false
	}
	digits := make([]int, 10)
	for i, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
		digits[i] = int(c - '0')
	}
	if digits[0] < 2 || digits[0] > 6 {
		return false
	}
	sum := 0
	for i, w := range medicareWeights {
		sum += digits[i] * w
	}
	return sum%10 == digits[8]
}
