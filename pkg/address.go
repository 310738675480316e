package pkg

import (
	"fmt"
	"strings"
)

const addressHexLength = 40

// ValidateAddress checks the canonical account address form: 0x followed by
// 40 hex characters. Checksum casing is not enforced, addresses are compared
// verbatim everywhere else.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	if !strings.HasPrefix(addr, "0x") {
		return fmt.Errorf("address must start with 0x")
	}
	hexPart := addr[2:]
	if len(hexPart) != addressHexLength {
		return fmt.Errorf("address must be %d hex characters, got %d", addressHexLength, len(hexPart))
	}
	for _, c := range hexPart {
		if !isHexChar(c) {
			return fmt.Errorf("address contains non-hex character %q", c)
		}
	}
	return nil
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
