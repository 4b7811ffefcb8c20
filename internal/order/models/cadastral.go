package models

import "regexp"

// Cadastral numbers follow the registry's fixed structure:
// district(2) : region(2) : quarter(6-7) : parcel(1+), e.g. 77:01:0001075:1361.
var cadastralPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{6,7}:\d+$`)

// ValidCadastralNumber reports whether s is a structurally valid cadastral
// number. Anything else is rejected before the registry is called.
func ValidCadastralNumber(s string) bool {
	return cadastralPattern.MatchString(s)
}
