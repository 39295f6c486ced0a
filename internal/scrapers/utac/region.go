package utac

import (
	"fmt"
	"strconv"
	"strings"
)

// RegionCode is a validated, canonical department code: "01" to "95" or
// "971" to "989".
type RegionCode string

func inRegionRange(n int) bool {
	return (n >= 1 && n <= 95) || (n >= 971 && n <= 989)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func formatRegion(n int) RegionCode {
	if n <= 95 {
		return RegionCode(fmt.Sprintf("%02d", n))
	}
	return RegionCode(strconv.Itoa(n))
}

// ParseRegionCode validates a region code and returns its canonical form,
// "4" and "04" both give "04".
func ParseRegionCode(s string) (RegionCode, error) {
	trimmed := strings.TrimSpace(s)
	if !allDigits(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegionCode, s)
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || !inRegionRange(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegionCode, s)
	}
	return formatRegion(n), nil
}

func ValidRegionCode(s string) bool {
	_, err := ParseRegionCode(s)
	return err == nil
}

// AllRegionCodes lists every region in crawl order.
func AllRegionCodes() []RegionCode {
	codes := make([]RegionCode, 0, 95+19)
	for i := 1; i <= 95; i++ {
		codes = append(codes, formatRegion(i))
	}
	for i := 971; i <= 989; i++ {
		codes = append(codes, formatRegion(i))
	}
	return codes
}

func (c RegionCode) String() string {
	return string(c)
}

// Matches is the row filter used by region searches. Two digit regions
// match any occurrence of the code followed by a digit, which is how a
// postal code of the region starts. Overseas regions match their code.
//
// This can match digits outside of the postal code (a phone number for
// example), that looseness is expected.
func (c RegionCode) Matches(rowText string) bool {
	code := string(c)
	if len(code) == 3 {
		return strings.Contains(rowText, code)
	}
	for d := '0'; d <= '9'; d++ {
		if strings.Contains(rowText, code+string(d)) {
			return true
		}
	}
	return false
}
