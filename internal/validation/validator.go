package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hexPattern  = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	flipPattern = regexp.MustCompile(`^(\d+):(\d+):([0-7])$`)
)

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

func ValidateCapability(capability int) error {
	validCaps := []int{2, 4, 8, 12, 24}
	for _, valid := range validCaps {
		if capability == valid {
			return nil
		}
	}
	return fmt.Errorf("capability must be 2, 4, 8, 12 or 24 (got %d)", capability)
}

func ValidateSectorSize(size int) error {
	if size != 512 && size != 1024 {
		return fmt.Errorf("sector size must be 512 or 1024 (got %d)", size)
	}
	return nil
}

func ValidatePageSize(size int) error {
	if size < 512 || size > 16384 || size&(size-1) != 0 {
		return fmt.Errorf("page size must be a power of two between 512 and 16384 (got %d)", size)
	}
	return nil
}

func ValidatePage(page, pages int) error {
	if page < 0 || page >= pages {
		return fmt.Errorf("page must be between 0 and %d (got %d)", pages-1, page)
	}
	return nil
}

// BitFlip addresses one bit of a raw page, offsets past the data address
// the spare area.
type BitFlip struct {
	Page   int
	Offset int
	Bit    int
}

// ParseBitFlip parses "page:offset:bit".
func ParseBitFlip(input string) (BitFlip, error) {
	m := flipPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return BitFlip{}, fmt.Errorf("bit flip must be page:offset:bit with bit 0-7 (got %q)", input)
	}

	page, err := strconv.Atoi(m[1])
	if err != nil {
		return BitFlip{}, fmt.Errorf("invalid page: %w", err)
	}
	offset, err := strconv.Atoi(m[2])
	if err != nil {
		return BitFlip{}, fmt.Errorf("invalid offset: %w", err)
	}
	bit, _ := strconv.Atoi(m[3])

	return BitFlip{Page: page, Offset: offset, Bit: bit}, nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
