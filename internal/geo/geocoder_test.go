package geo

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://geo.example.test/v1/reverse"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func registerReverseResponder(t *testing.T, statusCode int, body string) {
	t.Helper()
	httpmock.RegisterResponder("GET", `=~^https://geo\.example\.test/v1/reverse`,
		httpmock.NewStringResponder(statusCode, body))
}

func locationIQSuccessResponse() string {
	return `{
  "place_id": "123",
  "lat": "48.8584",
  "lon": "2.2945",
  "display_name": "Eiffel Tower, Avenue Anatole France, Paris, France",
  "address": {
    "road": "Avenue Anatole France",
    "suburb": "Gros-Caillou",
    "city": "Paris",
    "state": "Ile-de-France",
    "country": "France",
    "postcode": "75007"
  }
}`
}

func TestLocationIQ_ReverseGeocode_Success(t *testing.T) {
	setupHTTPMock(t)
	registerReverseResponder(t, http.StatusOK, locationIQSuccessResponse())

	g := NewLocationIQ(testEndpoint, "test-key")
	name := g.ReverseGeocode(context.Background(), 48.8584, 2.2945)

	assert.Equal(t, "Avenue Anatole France, Gros-Caillou, Paris, Ile-de-France, France", name)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLocationIQ_ReverseGeocode_QueryParameters(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponderWithQuery("GET", testEndpoint,
		map[string]string{"key": "test-key", "lat": "10.5", "lon": "-20.25", "format": "json"},
		httpmock.NewStringResponder(http.StatusOK, `{"address":{"city":"Somewhere"}}`))

	g := NewLocationIQ(testEndpoint, "test-key")

	assert.Equal(t, "Somewhere", g.ReverseGeocode(context.Background(), 10.5, -20.25))
}

func TestLocationIQ_ReverseGeocode_SkipsMissingParts(t *testing.T) {
	setupHTTPMock(t)
	registerReverseResponder(t, http.StatusOK, `{"address":{"road":"Main St","country":"Kenya"}}`)

	g := NewLocationIQ(testEndpoint, "test-key")

	assert.Equal(t, "Main St, Kenya", g.ReverseGeocode(context.Background(), 1, 2))
}

func TestLocationIQ_ReverseGeocode_Sentinels(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		want      string
	}{
		{
			name:      "network_error",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			want:      NotFoundName,
		},
		{
			name:      "empty_body",
			responder: httpmock.NewStringResponder(http.StatusOK, ""),
			want:      NoDataName,
		},
		{
			name:      "invalid_json",
			responder: httpmock.NewStringResponder(http.StatusOK, `{invalid json`),
			want:      ParseErrorName,
		},
		{
			name:      "no_address",
			responder: httpmock.NewStringResponder(http.StatusNotFound, `{"error":"Unable to geocode"}`),
			want:      NotFoundName,
		},
		{
			name:      "empty_address",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"address":{"postcode":"00100"}}`),
			want:      NotFoundName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder("GET", `=~^https://geo\.example\.test/v1/reverse`, tt.responder)

			g := NewLocationIQ(testEndpoint, "test-key")

			assert.Equal(t, tt.want, g.ReverseGeocode(context.Background(), 1, 2))
		})
	}
}

func TestLocationIQ_ReverseGeocode_CachesSuccess(t *testing.T) {
	setupHTTPMock(t)
	registerReverseResponder(t, http.StatusOK, locationIQSuccessResponse())

	g := NewLocationIQ(testEndpoint, "test-key")
	first := g.ReverseGeocode(context.Background(), 48.858400001, 2.2945)
	second := g.ReverseGeocode(context.Background(), 48.8584, 2.294500002)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLocationIQ_ReverseGeocode_DoesNotCacheFailures(t *testing.T) {
	setupHTTPMock(t)
	registerReverseResponder(t, http.StatusOK, "")

	g := NewLocationIQ(testEndpoint, "test-key")
	require.Equal(t, NoDataName, g.ReverseGeocode(context.Background(), 1, 2))

	registerReverseResponder(t, http.StatusOK, locationIQSuccessResponse())
	assert.Contains(t, g.ReverseGeocode(context.Background(), 1, 2), "Paris")
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestLocationIQ_ReverseGeocode_NoAPIKey(t *testing.T) {
	setupHTTPMock(t)
	registerReverseResponder(t, http.StatusOK, locationIQSuccessResponse())

	g := NewLocationIQ(testEndpoint, "")

	assert.Equal(t, NotFoundName, g.ReverseGeocode(context.Background(), 1, 2))
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestNewLocationIQ_DefaultEndpoint(t *testing.T) {
	g := NewLocationIQ("", "k")
	assert.Equal(t, DefaultEndpoint, g.endpoint)
}
