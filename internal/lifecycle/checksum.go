package lifecycle

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// firstField picks the note field the duplicate-detection fingerprint
// is derived from: "Front" when present, otherwise the alphabetically
// first field name.
func firstField(fields map[string]string) string {
	if v, ok := fields["Front"]; ok {
		return v
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return fields[keys[0]]
}

// normalizeField cleans a field value before hashing so cosmetic edits
// do not change the fingerprint.
func normalizeField(value string) string {
	v := strings.ToLower(value)
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "\r\n", "\n")
	return v
}

// Checksum returns the duplicate-detection fingerprint for a note's
// field map: the SHA-256 of the normalized first field, hex-encoded.
func Checksum(fields map[string]string) string {
	sum := sha256.Sum256([]byte(normalizeField(firstField(fields))))
	return fmt.Sprintf("%x", sum)
}
