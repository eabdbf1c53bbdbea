package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// suffixLen is how much of the submission id is appended to the timestamp.
const suffixLen = 8

// PrintFileKey builds the object key for an uploaded print file:
// <ownerID>/<unixMillis>-<suffix><ext>, where suffix is the first eight
// characters of submissionID. Two submissions by one owner in the same
// millisecond therefore get different keys. The extension is taken from the
// original file name and lower-cased.
func PrintFileKey(ownerID, fileName string, at time.Time, submissionID string) string {
	ext := strings.ToLower(path.Ext(fileName))
	suffix := strings.ReplaceAll(submissionID, "-", "")
	if len(suffix) > suffixLen {
		suffix = suffix[:suffixLen]
	}
	if suffix == "" {
		return fmt.Sprintf("%s/%d%s", ownerID, at.UnixMilli(), ext)
	}
	return fmt.Sprintf("%s/%d-%s%s", ownerID, at.UnixMilli(), suffix, ext)
}

// ParsePrintFileKey splits a key produced by PrintFileKey back into its owner.
func ParsePrintFileKey(key string) (ownerID string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0], true
}
