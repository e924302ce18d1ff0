package supervise

import "strings"

// ShellJoin renders argv as a single shell-pasteable line for the run
// header. Informational only; the child is never spawned via a shell.
func ShellJoin(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, a := range argv {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if safeUnquoted(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// safeUnquoted reports whether every byte is in the POSIX-safe set that
// needs no quoting.
func safeUnquoted(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			switch c {
			case '_', '@', '%', '+', '=', ':', ',', '.', '/', '-':
			default:
				return false
			}
		}
	}
	return true
}
