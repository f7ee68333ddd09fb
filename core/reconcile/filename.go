package reconcile

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// UntitledName replaces titles that are empty or sanitize to nothing.
	UntitledName = "Untitled"
	// MaxFilenameLength caps the sanitized title, in characters.
	MaxFilenameLength = 200
	// FileExtension is appended to every allocated filename.
	FileExtension = ".md"
	// dateSuffixLayout renders the collision suffix as MMDDYYYY.
	dateSuffixLayout = "01022006"
)

// reservedNames are device names Windows refuses as file names.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeTitle turns a record title into a name that is safe on common
// filesystems. Unsafe characters become "-", whitespace runs collapse to a
// single space and the result is capped at MaxFilenameLength characters.
func SanitizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UntitledName
	}

	normalized := norm.NFC.String(strings.TrimSpace(title))

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r == utf8.RuneError:
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	sanitized := strings.Join(strings.Fields(b.String()), " ")
	sanitized = truncateRunes(sanitized, MaxFilenameLength)
	// Trailing dots and spaces are dropped by Windows, leading ones hide files.
	sanitized = strings.Trim(sanitized, ". ")

	if _, reserved := reservedNames[strings.ToUpper(sanitized)]; reserved {
		sanitized += "_"
	}
	if sanitized == "" {
		return UntitledName
	}
	return sanitized
}

// AllocateFilename returns the destination filename for a record.
//
// The plain candidate is SanitizeTitle(title)+".md". When inUse already holds
// it, an underscore and the MMDDYYYY creation date are appended, falling back
// to now when createdAt cannot be parsed. If that name is also taken a
// numeric counter is added so the result never collides with inUse.
//
// Callers remove the record's own current filename from inUse so a record
// can keep or reclaim its name.
func AllocateFilename(title, createdAt string, inUse map[string]struct{}, now time.Time) string {
	base := SanitizeTitle(title)

	filename := base + FileExtension
	if _, taken := inUse[filename]; !taken {
		return filename
	}

	suffix := dateSuffix(createdAt, now)
	filename = fmt.Sprintf("%s_%s%s", base, suffix, FileExtension)
	for n := 2; ; n++ {
		if _, taken := inUse[filename]; !taken {
			return filename
		}
		filename = fmt.Sprintf("%s_%s-%d%s", base, suffix, n, FileExtension)
	}
}

// dateSuffix formats createdAt as MMDDYYYY in UTC.
func dateSuffix(createdAt string, now time.Time) string {
	ts, err := ParseTimestamp(createdAt)
	if err != nil {
		ts = now
	}
	return ts.UTC().Format(dateSuffixLayout)
}

// ParseTimestamp parses the ISO-8601 timestamps delivered by the source.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
