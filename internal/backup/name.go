package backup

import (
	"fmt"
	"strings"
	"time"
)

// Backup blobs are named "<stream>-<timestamp>.json" with colons removed
// from the timestamp so the name stays filesystem- and URL-safe.
const nameTimeLayout = "2006-01-02T15-04-05Z"

// EncodeName derives the blob name for a backup of the given stream taken at
// the given instant.
func EncodeName(stream string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", stream, ts.UTC().Format(nameTimeLayout))
}

// ParseName extracts the stream name and timestamp from a backup blob name.
func ParseName(name string) (stream string, ts time.Time, err error) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", time.Time{}, fmt.Errorf("not a backup name: %q", name)
	}

	// The timestamp is the fixed-width tail; everything before it (minus the
	// joining dash) is the stream name, which may itself contain dashes.
	if len(base) < len(nameTimeLayout)+1 {
		return "", time.Time{}, fmt.Errorf("not a backup name: %q", name)
	}
	cut := len(base) - len(nameTimeLayout)
	stream, stamp := base[:cut-1], base[cut:]
	if base[cut-1] != '-' || stream == "" {
		return "", time.Time{}, fmt.Errorf("not a backup name: %q", name)
	}

	ts, err = time.Parse(nameTimeLayout, stamp)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("bad timestamp in backup name %q: %w", name, err)
	}
	return stream, ts, nil
}
