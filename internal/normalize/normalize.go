// =============================================================================
// XML to XLSX Converter - Field Normalization
// =============================================================================
//
// This module normalizes field values after extraction, so that the two
// export dialects produce comparable columns. Actions are declared per field
// in the dialect schema and applied in order.
//
// ACTION TYPES:
//   - trim                : Remove leading and trailing whitespace
//   - decimal             : Canonical decimal ("12,50" -> "12.5")
//   - uppercase/lowercase : Case conversion
//   - pad_zeros_to_length : Left pad with zeros to a length
//   - prepend_string      : Add a string to the beginning
//   - append_string       : Add a string to the end
//   - replace             : Replace a substring
//   - lookup              : Replace the value using a lookup table
//
// Empty values are never normalized: an absent field stays "".
//
// =============================================================================

package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/shopspring/decimal"
)

// ErrInvalidValue is returned when a value cannot be normalized.
var ErrInvalidValue = errors.New("invalid value")

// =============================================================================
// NORMALIZATION FUNCTIONS
// =============================================================================

// Apply runs every action on value in sequence.
//
// PARAMETERS:
//   - value: The extracted value.
//   - actions: The actions declared for the field.
//
// RETURNS:
//   - The normalized value.
//   - An error wrapping ErrInvalidValue if an action rejects the value.
func Apply(value string, actions []config.Action) (string, error) {
	if value == "" {
		return value, nil
	}
	result := value
	for _, action := range actions {
		var err error
		result, err = ApplyAction(result, action)
		if err != nil {
			return "", fmt.Errorf("%s: %w", action.Type, err)
		}
	}
	return result, nil
}

// ApplyAction applies a single action.
func ApplyAction(value string, action config.Action) (string, error) {
	switch action.Type {
	case "trim":
		return strings.TrimSpace(value), nil

	case "decimal":
		// EXAMPLE:
		//   "12,50"     -> "12.5"
		//   "1.234,56"  -> "1234.56"
		//   "-0003.10"  -> "-3.1"
		d, err := ParseDecimal(value)
		if err != nil {
			return "", err
		}
		return d.String(), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "pad_zeros_to_length":
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		return PadLeft(value, n, '0'), nil

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	default:
		return value, fmt.Errorf("unknown normalization type: %s", action.Type)
	}
}

// ParseDecimal parses a decimal written with either "." or "," as the
// decimal separator. When both appear, the last one is the decimal separator
// and the other is a thousands separator. Spaces are ignored. Exponent
// notation ("1e5") is rejected: the canonical form would write out every
// digit of the expansion.
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidValue, value)
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	return d, nil
}

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}
