package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"locamark/internal/models"
)

const (
	// CSVHeader is the first line of every backup file.
	CSVHeader = "ID,Latitude,Longitude,Timestamp,LocationName,Category"
	// CSVTimestampLayout is MM/dd/yyyy h:mm a.
	CSVTimestampLayout = "01/02/2006 3:04 PM"

	csvMinFields = 6
)

// ErrEmptyCSV is returned when a backup has no rows after the header.
var ErrEmptyCSV = errors.New("empty or invalid CSV file")

// EncodeCSV writes the backup header and one row per record. Fields holding a
// comma are wrapped in double quotes; quotes and newlines inside fields are
// written as is.
func EncodeCSV(w io.Writer, records []models.LocationRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return err
	}

	for _, r := range records {
		timestamp := ""
		if r.Timestamp != nil {
			timestamp = r.Timestamp.Local().Format(CSVTimestampLayout)
		}
		category := r.Category
		if category == "" {
			category = models.CategoryOther
		}

		row := strings.Join([]string{
			r.ID.String(),
			FormatDegrees(r.Latitude),
			FormatDegrees(r.Longitude),
			timestamp,
			quoteIfComma(r.LocationName),
			quoteIfComma(category),
		}, ",")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeCSV reads a backup and returns one new, unsaved record per usable row.
// The header line is skipped, rows with fewer than six fields are dropped, the
// stored id is ignored, unparsable coordinates read as 0 and an unparsable
// timestamp falls back to now.
func DecodeCSV(r io.Reader, now func() time.Time) ([]models.LocationRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil, ErrEmptyCSV
	}

	var records []models.LocationRecord
	for _, line := range lines[1:] {
		fields := splitCSVLine(line)
		if len(fields) < csvMinFields {
			continue
		}

		ts, err := time.ParseInLocation(CSVTimestampLayout, fields[3], time.Local)
		if err != nil {
			ts = now()
		}

		records = append(records, models.LocationRecord{
			Latitude:     parseDegreesOrZero(fields[1]),
			Longitude:    parseDegreesOrZero(fields[2]),
			Timestamp:    &ts,
			LocationName: fields[4],
			Category:     fields[5],
		})
	}
	return records, nil
}

// splitCSVLine splits a row on commas. A field is quoted only when it starts
// with a double quote that is closed by a quote right before a comma or the end
// of the line; the surrounding quotes are removed. Any other quote is literal.
func splitCSVLine(line string) []string {
	var fields []string
	for {
		if strings.HasPrefix(line, `"`) {
			if end := closingQuote(line); end > 0 {
				fields = append(fields, line[1:end])
				line = line[end+1:]
				if line == "" {
					return fields
				}
				line = line[1:]
				continue
			}
		}
		i := strings.IndexByte(line, ',')
		if i < 0 {
			return append(fields, line)
		}
		fields = append(fields, line[:i])
		line = line[i+1:]
	}
}

// closingQuote returns the index of the quote ending a quoted field that opens
// at line[0], or -1 when the opening quote is unpaired.
func closingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] == '"' && (i+1 == len(line) || line[i+1] == ',') {
			return i
		}
	}
	return -1
}

func quoteIfComma(s string) string {
	if strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}

func parseDegreesOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
