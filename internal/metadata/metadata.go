// Package metadata extracts session identity from raw log filenames of the
// form protocol_animal_YYYYMMDD_HHMMSS_boxN.csv.
package metadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/harrison/trialscope/internal/models"
)

var filenamePattern = regexp.MustCompile(
	`(?i)(?P<protocol>[^_/\\]+)_(?P<animal>\d+)_(?P<date>\d{8})_(?P<time>\d{6})_box(?P<box>\w+?)(?:\.csv)?$`,
)

const timestampLayout = "20060102_150405"

// Meta is the session identity encoded in a filename
type Meta struct {
	Protocol string
	Animal   string
	Date     time.Time // date and time of day the session started, UTC
	Box      string
}

// MalformedFilenameError is returned when a filename does not follow the naming convention
type MalformedFilenameError struct {
	Filename string
	Reason   string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed session filename %q: %s", e.Filename, e.Reason)
}

// Parse extracts protocol, animal, timestamp and box from a path or filename
func Parse(path string) (Meta, error) {
	name := filepath.Base(path)
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return Meta{}, &MalformedFilenameError{
			Filename: name,
			Reason:   "expected protocol_animal_YYYYMMDD_HHMMSS_boxN",
		}
	}

	group := func(n string) string {
		return m[filenamePattern.SubexpIndex(n)]
	}

	ts, err := time.Parse(timestampLayout, group("date")+"_"+group("time"))
	if err != nil {
		return Meta{}, &MalformedFilenameError{Filename: name, Reason: "invalid date or time: " + err.Error()}
	}

	return Meta{
		Protocol: group("protocol"),
		Animal:   group("animal"),
		Date:     ts,
		Box:      group("box"),
	}, nil
}

// DateString returns the session date as YYYY-MM-DD
func (m Meta) DateString() string {
	return m.Date.Format("2006-01-02")
}

// SessionMeta converts the filename identity into the session model
func (m Meta) SessionMeta(sourceFile string) models.SessionMeta {
	return models.SessionMeta{
		Animal:     m.Animal,
		Protocol:   m.Protocol,
		Date:       m.Date,
		Box:        m.Box,
		SourceFile: sourceFile,
	}
}

// IsProtocol reports whether the filename's protocol matches name, ignoring case
func (m Meta) IsProtocol(name string) bool {
	return strings.EqualFold(m.Protocol, name)
}
