package mapper

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rastreiamais/rastreia/internal/form"
)

var nonDigit = regexp.MustCompile(`\D+`)

// OnlyDigits strips everything but 0-9.
func OnlyDigits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// ToDateISO normalizes a form date to YYYY-MM-DD. Blank or unparseable input
// yields nil so the backend receives null.
func ToDateISO(s string) *string {
	t, ok := form.ParseDate(s)
	if !ok {
		return nil
	}
	v := t.UTC().Format(form.DateLayout)
	return &v
}

// AgeFromBirth returns the age in whole years at now, never negative.
func AgeFromBirth(birth string, now time.Time) *int {
	b, ok := form.ParseDate(birth)
	if !ok {
		return nil
	}
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

const (
	passwordLetters = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits  = "0123456789"
	passwordSymbol  = "#"
)

// GeneratePassword returns a temporary password of two lowercase letters,
// five digits and "#", e.g. "ba27412#".
func GeneratePassword() string {
	var b strings.Builder
	for i := 0; i < 2; i++ {
		b.WriteByte(passwordLetters[randIndex(len(passwordLetters))])
	}
	for i := 0; i < 5; i++ {
		b.WriteByte(passwordDigits[randIndex(len(passwordDigits))])
	}
	b.WriteString(passwordSymbol)
	return b.String()
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return int(v.Int64())
}

// Decimal2 renders a number with two decimals, the backend's decimal format.
func Decimal2(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	return &s
}

// numString renders a number without trailing zeros, for CharField columns.
func numString(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}

// parseNum reads a decimal string as returned by the backend.
func parseNum(s *string) *float64 {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(strings.ReplaceAll(*s, ",", "."))
	if t == "" {
		return nil
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dateOnly reduces a backend date or timestamp to YYYY-MM-DD for the form.
func dateOnly(s *string) string {
	if s == nil {
		return ""
	}
	if v := ToDateISO(*s); v != nil {
		return *v
	}
	return ""
}
