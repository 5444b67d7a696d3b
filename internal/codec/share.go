// Package codec converts location records to and from the formats used for
// sharing and backup: the share text block, QR images, CSV and GeoJSON.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"locamark/internal/models"
)

const (
	// ShareTimestampLayout is dd/MM/yyyy HH:mm.
	ShareTimestampLayout = "02/01/2006 15:04"

	prefixLocation  = "Location: "
	prefixLatitude  = "Latitude: "
	prefixLongitude = "Longitude: "
	prefixCategory  = "Category: "
	prefixTimestamp = "Timestamp: "

	mapsBaseURL = "https://maps.apple.com/"
)

// ErrInvalidPayload is returned when a share block lacks a parsable latitude,
// longitude or location name.
var ErrInvalidPayload = errors.New("invalid location data")

// SharePayload is what a scanned share block carries.
type SharePayload struct {
	LocationName string
	Latitude     float64
	Longitude    float64
	Category     string
}

// Record builds a new, unsaved location from the payload.
func (p SharePayload) Record(ts time.Time) models.LocationRecord {
	return models.LocationRecord{
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Timestamp:    &ts,
		LocationName: p.LocationName,
		Category:     p.Category,
	}
}

// EncodeSharePayload renders the five-line block shared through QR codes.
func EncodeSharePayload(r models.LocationRecord) string {
	category := r.Category
	if category == "" {
		category = models.CategoryOther
	}

	var b strings.Builder
	b.WriteString(prefixLocation + r.DisplayName() + "\n")
	b.WriteString(prefixLatitude + FormatDegrees(r.Latitude) + "\n")
	b.WriteString(prefixLongitude + FormatDegrees(r.Longitude) + "\n")
	b.WriteString(prefixCategory + category + "\n")
	b.WriteString(prefixTimestamp + shareTime(r))
	return b.String()
}

// DecodeSharePayload parses a share block line by line. Latitude, longitude and
// location are required; category defaults to "other". Unknown lines are ignored
// and a repeated line overrides the earlier one.
func DecodeSharePayload(text string) (SharePayload, error) {
	var (
		lat, lon *float64
		name     *string
		category = models.CategoryOther
	)

	for _, line := range splitLines(text) {
		switch {
		case strings.HasPrefix(line, prefixLatitude):
			lat = parseDegrees(strings.TrimPrefix(line, prefixLatitude))
		case strings.HasPrefix(line, prefixLongitude):
			lon = parseDegrees(strings.TrimPrefix(line, prefixLongitude))
		case strings.HasPrefix(line, prefixLocation):
			v := strings.TrimPrefix(line, prefixLocation)
			name = &v
		case strings.HasPrefix(line, prefixCategory):
			category = strings.ToLower(strings.TrimPrefix(line, prefixCategory))
		}
	}

	if lat == nil || lon == nil || name == nil {
		return SharePayload{}, ErrInvalidPayload
	}
	return SharePayload{
		LocationName: *name,
		Latitude:     *lat,
		Longitude:    *lon,
		Category:     category,
	}, nil
}

// ShareMessage is the one-line text handed to the system share sheet.
func ShareMessage(r models.LocationRecord) string {
	return fmt.Sprintf("I'm at %s on %s!", r.DisplayName(), shareTime(r))
}

// MapsURL opens the record in a maps application.
func MapsURL(r models.LocationRecord) string {
	return fmt.Sprintf("%s?ll=%s,%s", mapsBaseURL, FormatDegrees(r.Latitude), FormatDegrees(r.Longitude))
}

// FormatDegrees prints a coordinate in its shortest exact form, always with a
// fractional part: 10 becomes "10.0".
func FormatDegrees(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func parseDegrees(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func shareTime(r models.LocationRecord) string {
	ts := time.Now()
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}
	return ts.Local().Format(ShareTimestampLayout)
}

// splitLines splits on \n, \r\n and lone \r.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
