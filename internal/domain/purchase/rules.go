package purchase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Field bounds enforced before any backend call
const (
	MinPhoneDigits     = 10
	MaxPhoneDigits     = 14
	MinMeterLength     = 5
	MinSmartCardLength = 8
	MaxSmartCardLength = 15
)

// Amount windows accepted by the backend regardless of provider
var (
	AirtimeLimits     = valueobject.NewAmountRange(50, 50000)
	ElectricityLimits = valueobject.NewAmountRange(100, 500000)
)

// CableProviders are the cable TV providers the backend supports
var CableProviders = []Provider{
	{Code: "dstv", Name: "DStv"},
	{Code: "gotv", Name: "GOtv"},
	{Code: "startimes", Name: "StarTimes"},
	{Code: "showmax", Name: "Showmax"},
}

// IsCableProvider reports whether code names a supported cable provider
func IsCableProvider(code string) bool {
	for _, p := range CableProviders {
		if p.Code == code {
			return true
		}
	}
	return false
}

// NormalizePhone strips spaces and dashes from a phone number
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, phone)
}

// ValidatePhone checks a phone number has between 10 and 14 digits and
// nothing else apart from a leading plus sign
func ValidatePhone(phone string) error {
	p := strings.TrimPrefix(NormalizePhone(phone), "+")
	if p == "" {
		return shared.NewValidationError("phone number is required")
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return shared.NewValidationError("phone number may only contain digits")
		}
	}
	if len(p) < MinPhoneDigits {
		return shared.NewValidationError("phone number must have at least 10 digits")
	}
	if len(p) > MaxPhoneDigits {
		return shared.NewValidationError("phone number is too long")
	}
	return nil
}

// ValidateAmount checks amount lies within limits
func ValidateAmount(amount decimal.Decimal, limits valueobject.AmountRange, currency valueobject.Currency) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("amount is required")
	}
	if !limits.Contains(amount) {
		return shared.NewValidationError("amount must be " + limits.Describe(currency))
	}
	return nil
}

// ValidateMeter checks the meter number and type
func ValidateMeter(number string, meterType MeterType) error {
	if !meterType.IsValid() {
		return shared.NewValidationError("meter type must be prepaid (01) or postpaid (02)")
	}
	if utf8.RuneCountInString(strings.TrimSpace(number)) < MinMeterLength {
		return shared.NewValidationError("meter number must have at least 5 characters")
	}
	return nil
}

// ValidateSmartCard checks the smartcard/IUC number length
func ValidateSmartCard(number string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(number))
	if n < MinSmartCardLength || n > MaxSmartCardLength {
		return shared.NewValidationError("smartcard number must have between 8 and 15 characters")
	}
	return nil
}
