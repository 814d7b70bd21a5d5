package main

import "unicode"

func isValidID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}

	for _, r := range id {
		if r == '-' || r == '_' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}

	return true
}
