package fetch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonPriceChars = regexp.MustCompile(`[^0-9.,]`)

// ParsePrice converts a display price like "$1,299.99" to a float.
// Currency symbols and thousands separators are stripped.
func ParsePrice(text string) (float64, error) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in price text %q", text)
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price text %q: %w", text, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price parsed from %q", text)
	}

	return price, nil
}
