package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// Encoding selects how an entry is stored on disk.
type Encoding string

const (
	// EncodingStruct stores a JSON document.
	EncodingStruct Encoding = "struct"
	// EncodingTable stores CSV text.
	EncodingTable Encoding = "table"
	// EncodingBinary stores a Parquet table.
	EncodingBinary Encoding = "binary"
)

const (
	// LockName is the sentinel directory guarding one source type.
	LockName = ".lock.single_query"

	entryPrefix  = "data."
	tempPrefix   = ".tmp-"
	dateLayout   = "20060102"
	suffixLayout = "20060102_150405"
)

// Ext returns the file extension of the encoding.
func (e Encoding) Ext() string {
	return string(e)
}

// Validate rejects unknown encodings.
func (e Encoding) Validate() error {
	switch e {
	case EncodingStruct, EncodingTable, EncodingBinary:
		return nil
	default:
		return errors.Newf(errors.ErrCodeUnsupportedEncoding, "unsupported cache encoding %q", string(e))
	}
}

// SourceRoot returns <root>/<sourceType>.
func SourceRoot(root, sourceType string) string {
	return filepath.Join(root, sourceType)
}

// BucketDir returns <root>/<sourceType>/<date>.
func BucketDir(root, sourceType, date string) string {
	return filepath.Join(root, sourceType, date)
}

// BucketDate formats t as a cache-key date.
func BucketDate(t time.Time) string {
	return t.Format(dateLayout)
}

// EntryName returns data.<fingerprint>[.<suffix>].<ext>. A non-zero at adds the
// microsecond suffix used when caching is disabled.
func EntryName(fingerprint string, encoding Encoding, at time.Time) string {
	if at.IsZero() {
		return entryPrefix + fingerprint + "." + encoding.Ext()
	}

	suffix := fmt.Sprintf("%s_%06d", at.Format(suffixLayout), at.Nanosecond()/int(time.Microsecond))

	return entryPrefix + fingerprint + "." + suffix + "." + encoding.Ext()
}

// isEntryFile reports whether name is a written cache entry. Lock sentinels and
// in-flight temp files start with a dot.
func isEntryFile(name string) bool {
	return strings.HasPrefix(name, entryPrefix)
}

// CleanBucketRoot deletes all but the keep lexically-greatest bucket directories under
// sourceRoot and returns the removed paths. Dot-prefixed names and plain files are
// ignored. keep <= 0 disables eviction.
func CleanBucketRoot(sourceRoot string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	items, err := os.ReadDir(sourceRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to list %s", sourceRoot)
	}

	buckets := make([]string, 0, len(items))

	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}

		buckets = append(buckets, item.Name())
	}

	if len(buckets) <= keep {
		return nil, nil
	}

	sort.Strings(buckets)

	stale := buckets[:len(buckets)-keep]
	removed := make([]string, 0, len(stale))

	for _, name := range stale {
		path := filepath.Join(sourceRoot, name)
		if err := os.RemoveAll(path); err != nil {
			return removed, errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to evict bucket %s", path)
		}

		removed = append(removed, path)
	}

	return removed, nil
}
