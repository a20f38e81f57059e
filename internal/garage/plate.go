package garage

import "strings"

// NormalizePlate upper-cases and trims a license plate so that two
// spellings of the same plate always collide on the same record.  All
// stores persist the normalized form only.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// validPlate reports whether a normalized plate is acceptable: 2 to 12
// characters drawn from A-Z, 0-9 and '-'.
func validPlate(plate string) bool {
	if len(plate) < 2 || len(plate) > 12 {
		return false
	}
	for _, r := range plate {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
