// Package pathutil provides path manipulation for slash-separated archive
// member names.
package pathutil

import (
	"path"
	"strings"
)

// ToSlash converts Windows separators in an archive member name to slashes.
// Archive names never use the host separator, so this is independent of GOOS.
func ToSlash(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// Base returns the last element of a member name.
// If name is empty or ".", it returns ".".
func Base(name string) string {
	name = strings.TrimSuffix(ToSlash(name), "/")
	if name == "" || name == "." {
		return "."
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Clean normalizes a member name into a relative slash path that stays
// below the extraction root. It reports false for absolute names, names
// that climb out with "..", and names that clean to the root itself.
func Clean(name string) (string, bool) {
	slashed := ToSlash(name)
	if path.IsAbs(slashed) || hasDriveLetter(slashed) {
		return "", false
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}

func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}
