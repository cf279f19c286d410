// Package util provides firmware version helpers shared by the leaderboard
// and the OTA client.
package util

import (
	"regexp"
	"strings"
)

// otaFilenamePattern matches release artifact names such as
// "peach-application-ab12f3c-release.gbl" and
// "flourish-loader-app-0fa23bc-release.puff".
var otaFilenamePattern = regexp.MustCompile(`([a-zA-Z].*)-(application|[a-zA-Z].*-[a-zA-Z].*)-([0-9a-zA-Z]{7})-release.(gbl|puff)`)

// LettersToNumber converts a letter firmware version ("Y", "AC", ...) to its
// ordinal so versions compare numerically. "A" is 1, "Z" is 26, "AA" is 27.
// Characters outside A-Z are ignored.
func LettersToNumber(version string) int64 {
	var n int64
	for _, r := range strings.ToUpper(version) {
		if r < 'A' || r > 'Z' {
			continue
		}
		n = n*26 + int64(r-'A'+1)
	}

	return n
}

// OTAFilename is the metadata encoded in a release artifact filename.
type OTAFilename struct {
	Codename string
	Name     string
	GitHash  string
	Type     string
}

// ParseOTAFilename extracts release metadata from an artifact filename.
// Returns false when the name does not follow the release naming scheme.
func ParseOTAFilename(filename string) (OTAFilename, bool) {
	matches := otaFilenamePattern.FindStringSubmatch(filename)
	if matches == nil {
		return OTAFilename{}, false
	}

	return OTAFilename{
		Codename: matches[1],
		Name:     matches[2],
		GitHash:  matches[3],
		Type:     matches[4],
	}, true
}
