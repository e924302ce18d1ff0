package ids

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/saferun/saferun/internal/schema"
)

// One grammar for artifact basenames, shared by the writer (compose) and the
// archival scanner (parse): {YYYYMMDDTHHMMSSZ}-pid{pid}-{STATUS}[-{n}].log
var reArtifact = regexp.MustCompile(`^([0-9]{8}T[0-9]{6}Z)-pid([0-9]+)-(FAIL|ABORTED|ERROR)(?:-([1-9][0-9]*))?\.log$`)

// Timestamp renders the UTC second-resolution stamp used in artifact names.
func Timestamp(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}

// ParseTimestamp reads a stamp produced by Timestamp back into a time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("20060102T150405Z", s)
}

// ArtifactBase composes the name base: timestamp, pid, and terminal status.
func ArtifactBase(now time.Time, pid int, status schema.Status) string {
	return fmt.Sprintf("%s-pid%d-%s", Timestamp(now), pid, status)
}

// ArtifactName renders the nth candidate filename for a base; n=0 is the
// preferred unsuffixed form, n>=1 the collision-disambiguated forms.
func ArtifactName(base string, n int) string {
	if n <= 0 {
		return base + ".log"
	}
	return fmt.Sprintf("%s-%d.log", base, n)
}

type ParsedArtifact struct {
	Timestamp string
	PID       int
	Status    schema.Status
	// Suffix is the collision disambiguator; 0 when absent.
	Suffix int
}

// ParseArtifactName splits a basename per the artifact grammar.
func ParseArtifactName(name string) (ParsedArtifact, bool) {
	m := reArtifact.FindStringSubmatch(name)
	if m == nil {
		return ParsedArtifact{}, false
	}
	pid, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedArtifact{}, false
	}
	suffix := 0
	if m[4] != "" {
		suffix, err = strconv.Atoi(m[4])
		if err != nil {
			return ParsedArtifact{}, false
		}
	}
	return ParsedArtifact{
		Timestamp: m[1],
		PID:       pid,
		Status:    schema.Status(m[3]),
		Suffix:    suffix,
	}, true
}

// IsArtifactName reports whether a basename is an archival candidate.
func IsArtifactName(name string) bool {
	return reArtifact.MatchString(name)
}
