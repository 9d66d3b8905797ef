package similarity

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	vserrors "github.com/five82/vidsim/internal/errors"
)

// AggregateMarker identifies the aggregate line of an SSIM report.
const AggregateMarker = "All:"

var aggregateRegex = regexp.MustCompile(`All:([\d.]+)`)

// ExtractScore scans lines from last to first and parses the first decimal
// after the aggregate marker on the first line containing it. The boolean is
// false when no such line exists or its value does not parse.
func ExtractScore(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if !strings.Contains(lines[i], AggregateMarker) {
			continue
		}
		return parseAggregateLine(lines[i])
	}
	return 0, false
}

func parseAggregateLine(line string) (float64, bool) {
	m := aggregateRegex.FindStringSubmatch(line)
	if len(m) < 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseReport reads a whole report and extracts its aggregate score.
func ParseReport(r io.Reader) (float64, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, vserrors.NewReportUnreadableError("stream", err)
	}

	value, ok := ExtractScore(lines)
	if !ok {
		return 0, vserrors.NewScoreNotFoundError("SSIM score not found in output")
	}
	return value, nil
}

// ReadReport opens the report at path and extracts its aggregate score.
// A missing or unreadable file is reported as ReportUnreadable.
func ReadReport(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, vserrors.NewReportUnreadableError(path, err)
	}
	defer f.Close()
	return ParseReport(f)
}
