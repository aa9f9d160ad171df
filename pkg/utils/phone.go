package utils

import (
	"fmt"
	"strings"
)

// NormalizePhone converts a US phone number in any common notation
// ("(215) 932-4488", "+1 215.932.4488", "2159324488") into the
// XXX-XXX-XXXX form used as the member key in the store.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return "", fmt.Errorf("phone number %q must contain 10 digits", raw)
	}

	return d[0:3] + "-" + d[3:6] + "-" + d[6:], nil
}
