package pagination

import (
	"encoding/base64"
	"fmt"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeToken creates a base64 cursor from a record's creation time. Used for
// consistent newest-first pagination across repositories.
func EncodeToken(createdAt time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(createdAt.Format(timeFormat)))
}

// DecodeToken parses a cursor back into the creation time bound.
func DecodeToken(token string) (time.Time, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, string(decoded))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token format (time parse): %w", err)
	}
	return createdAt, nil
}
