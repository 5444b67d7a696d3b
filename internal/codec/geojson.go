package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"locamark/internal/models"
)

// EncodeGeoJSON renders the records as a FeatureCollection of points so the
// timeline can be opened in any GIS tool.
func EncodeGeoJSON(records []models.LocationRecord) ([]byte, error) {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(records)),
	}

	for _, r := range records {
		props := map[string]interface{}{
			"location_name": r.LocationName,
			"category":      r.Category,
			"display_name":  r.DisplayName(),
		}
		if r.CustomName != nil {
			props["custom_name"] = *r.CustomName
		}
		if r.Timestamp != nil {
			props["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID.String(),
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}),
			Properties: props,
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("marshal GeoJSON: %w", err)
	}
	return data, nil
}
