// Package agg has parsing, caching and merging logic for commit activity data.
package agg

import (
	"strconv"
	"strings"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// ParseCommitLog turns the output of contract.GitClient.GetCommitLog into commit records.
// A commit whose instant cannot be parsed is dropped together with its file stats
// and counted in the returned skip total. Records keep the order git emitted them.
func ParseCommitLog(out []byte) ([]schema.CommitRecord, int) {
	var records []schema.CommitRecord
	skipped := 0
	current := -1 // index of the record that owns the following stats lines

	for l := range strings.SplitSeq(string(out), "\n") {
		l = strings.Trim(l, " \t\r\n'")
		if l == "" {
			continue // Skip blank lines
		}

		if strings.HasPrefix(l, "--") {
			rec, ok := parseCommitHeader(l)
			if !ok {
				skipped++
				current = -1
				continue
			}
			records = append(records, rec)
			current = len(records) - 1
			continue
		}

		if current < 0 {
			continue
		}
		add, del, ok := parseFileStatsLine(l)
		if !ok {
			continue
		}
		rec := &records[current]
		rec.LinesAdded += add
		rec.LinesDeleted += del
		rec.HasLines = true
	}
	return records, skipped
}

// parseCommitHeader extracts hash, contributor and raw date from a commit header line.
func parseCommitHeader(line string) (schema.CommitRecord, bool) {
	if len(line) < 5 { // --x|y|z minimum
		return schema.CommitRecord{}, false
	}
	parts := strings.SplitN(line[2:], "|", 3) // hash|email|raw date
	if len(parts) != 3 {
		return schema.CommitRecord{}, false
	}
	instant, offset, err := contract.ParseRawDate(parts[2])
	if err != nil {
		return schema.CommitRecord{}, false
	}
	return schema.CommitRecord{
		Hash:        parts[0],
		Contributor: schema.NormalizeContributor(parts[1]),
		Instant:     instant,
		RawOffset:   offset,
	}, true
}

// parseFileStatsLine parses a numstat line ("added\tdeleted\tpath").
func parseFileStatsLine(line string) (int, int, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return 0, 0, false
	}
	return parseChurnValue(parts[0]), parseChurnValue(parts[1]), true
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}
