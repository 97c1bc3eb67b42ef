package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

const maxStemLength = 80

// Request identifies one provider call.
type Request struct {
	// Target is the function name or URL path being called.
	Target string
	Params map[string]string
	// Date is the cache-key date (YYYYMMDD). Empty means the store's current day.
	Date string
}

// Fingerprinter derives stable cache keys from requests, ignoring denied parameters.
type Fingerprinter struct {
	denied map[string]struct{}
}

// NewFingerprinter builds a fingerprinter. Parameter names are matched case-insensitively.
func NewFingerprinter(deny []string) *Fingerprinter {
	denied := make(map[string]struct{}, len(deny))
	for _, name := range deny {
		denied[normalize(name)] = struct{}{}
	}

	return &Fingerprinter{denied: denied}
}

// Canonical renders the request as "target?k1=v1&k2=v2" with lower-cased, sorted,
// non-denied parameters. Keys and values are query-escaped, so the part after the last
// "?" decodes back to exactly one parameter set.
func (f *Fingerprinter) Canonical(req Request) string {
	values := url.Values{}

	for key, value := range req.Params {
		key = normalize(key)
		if _, ok := f.denied[key]; ok {
			continue
		}

		values.Add(key, normalize(value))
	}

	// Keys that differ only in case land in one slot in map order.
	for _, vs := range values {
		sort.Strings(vs)
	}

	return normalize(req.Target) + "?" + values.Encode()
}

// Fingerprint returns a filesystem-safe key: a readable stem followed by the xxh3 digest
// of the canonical string. Two requests share a fingerprint only if their canonical
// strings are equal.
func (f *Fingerprinter) Fingerprint(req Request) string {
	canonical := f.Canonical(req)

	return fmt.Sprintf("%s-%016x", sanitize(canonical), xxh3.HashString(canonical))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// sanitize keeps [a-z0-9-] and collapses every other run of characters into "_".
func sanitize(s string) string {
	var b strings.Builder

	pendingSep := false

	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}

			pendingSep = false

			b.WriteRune(r)

			continue
		}

		pendingSep = true
	}

	stem := b.String()
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "_")
	}

	if stem == "" {
		stem = "request"
	}

	return stem
}
