package breakglass

import "strings"

const codeLength = 6

// NormalizeCode strips everything but digits from a one-time code and caps
// it at six characters, mirroring what the input field enforces as typed.
func NormalizeCode(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == codeLength {
			break
		}
	}
	return b.String()
}

// CodeReady reports whether the code gate allows submission: always when
// the account has no second factor, otherwise only for exactly six digits.
func CodeReady(code string, required bool) bool {
	if !required {
		return true
	}
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
