package payment

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// MinorUnits converts a major-unit amount (rupees) into minor units (paise)
// using exact integer arithmetic. The amount is handled as its decimal string
// form end to end, so 199.99 becomes 19999 with no float in the path. At most
// two fraction digits are accepted and the result must be positive.
func MinorUnits(amount json.Number) (int64, error) {
	s := strings.TrimSpace(amount.String())
	if s == "" {
		return 0, errors.New("amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, errors.New("amount must be positive")
	}
	if strings.ContainsAny(s, "eE") {
		return 0, errors.New("amount must be a plain decimal")
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if fracPart == "" {
			return 0, errors.New("amount is malformed")
		}
	}
	if intPart == "" {
		return 0, errors.New("amount is malformed")
	}
	if len(fracPart) > 2 {
		return 0, errors.New("amount has more than two decimal places")
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errors.New("amount is malformed")
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, errors.New("amount is malformed")
	}
	if major > (1<<62)/100 {
		return 0, errors.New("amount out of range")
	}
	minor := major*100 + frac
	if minor <= 0 {
		return 0, errors.New("amount must be positive")
	}
	return minor, nil
}
