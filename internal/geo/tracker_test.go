package geo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

func authorizedTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := NewTracker()
	tr.SetAuthorization(Authorized)
	t.Cleanup(tr.Close)
	return tr
}

func TestTracker_CurrentPosition(t *testing.T) {
	t.Run("nothing_cached", func(t *testing.T) {
		tr := authorizedTracker(t)
		_, err := tr.CurrentPosition()
		assert.ErrorIs(t, err, ErrPositionUnavailable)
	})

	t.Run("latest_fix_wins", func(t *testing.T) {
		tr := authorizedTracker(t)
		require.NoError(t, tr.Update(Position{Latitude: 1, Longitude: 2}))
		require.NoError(t, tr.Update(Position{Latitude: 3, Longitude: 4}))

		p, err := tr.CurrentPosition()
		require.NoError(t, err)
		assert.Equal(t, 3.0, p.Latitude)
		assert.Equal(t, 4.0, p.Longitude)
		assert.False(t, p.Timestamp.IsZero(), "zero timestamp replaced with now")
	})

	t.Run("denied_clears_fix", func(t *testing.T) {
		tr := authorizedTracker(t)
		require.NoError(t, tr.Update(Position{Latitude: 1, Longitude: 2}))

		tr.SetAuthorization(Denied)
		_, err := tr.CurrentPosition()
		assert.ErrorIs(t, err, ErrPermissionDenied)

		tr.SetAuthorization(Authorized)
		_, err = tr.CurrentPosition()
		assert.ErrorIs(t, err, ErrPositionUnavailable)
	})
}

func TestTracker_UpdateRequiresAuthorization(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	assert.Equal(t, NotDetermined, tr.RequestAuthorization())
	assert.ErrorIs(t, tr.Update(Position{}), ErrAuthorizationPending)

	tr.SetAuthorization(Restricted)
	assert.ErrorIs(t, tr.Update(Position{}), ErrPermissionDenied)

	tr.SetAuthorization(Authorized)
	assert.Equal(t, Authorized, tr.RequestAuthorization())
	assert.NoError(t, tr.Update(Position{}))
}

func TestTracker_Subscribe(t *testing.T) {
	tr := authorizedTracker(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := tr.Subscribe(ctx)
	require.NoError(t, tr.Update(Position{Latitude: 5, Longitude: 6}))

	select {
	case p := <-ch:
		assert.Equal(t, 5.0, p.Latitude)
	case <-time.After(time.Second):
		t.Fatal("no position delivered")
	}

	cancel()
	for range ch {
	}
}

func TestTracker_SlowSubscriberDoesNotBlock(t *testing.T) {
	tr := authorizedTracker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := tr.Subscribe(ctx)
	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, tr.Update(Position{Latitude: float64(i)}))
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestTracker_CloseEndsSubscriptions(t *testing.T) {
	tr := NewTracker()
	ch := tr.Subscribe(context.Background())

	tr.Close()
	tr.Close()

	_, open := <-ch
	for open {
		_, open = <-ch
	}

	late := tr.Subscribe(context.Background())
	_, open = <-late
	assert.False(t, open)
}

func TestAuthorizationStatus_Text(t *testing.T) {
	for _, s := range []AuthorizationStatus{NotDetermined, Restricted, Denied, Authorized} {
		parsed, err := ParseAuthorizationStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	var msg struct {
		Status AuthorizationStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"AUTHORIZED"}`), &msg))
	assert.Equal(t, Authorized, msg.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"maybe"}`), &msg))
}

func TestPosition_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "utc",
			input: `{"latitude":1,"longitude":2,"timestamp":"2025-03-08T14:05:00Z"}`,
			want:  time.Date(2025, 3, 8, 14, 5, 0, 0, time.UTC),
		},
		{
			name:  "no_zone_reads_as_utc",
			input: `{"latitude":1,"longitude":2,"timestamp":"2025-03-08T14:05:00.123456"}`,
			want:  time.Date(2025, 3, 8, 14, 5, 0, 123456000, time.UTC),
		},
		{
			name:  "offset",
			input: `{"latitude":1,"longitude":2,"timestamp":"2025-03-08T21:05:00+07:00"}`,
			want:  time.Date(2025, 3, 8, 14, 5, 0, 0, time.UTC),
		},
		{
			name:  "missing",
			input: `{"latitude":1,"longitude":2}`,
		},
		{
			name:    "garbage",
			input:   `{"latitude":1,"longitude":2,"timestamp":"yesterday"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Position
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1.0, p.Latitude)
			assert.Equal(t, 2.0, p.Longitude)
			assert.True(t, tt.want.Equal(p.Timestamp), "got %v", p.Timestamp)
		})
	}
}

func TestDistanceAndBearing(t *testing.T) {
	// Paris to London.
	d := Distance(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 343_500, d, 1_500)

	assert.InDelta(t, 0, Distance(10, 20, 10, 20), 1e-9)
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, 270, Bearing(0, 0, 0, -1), 1e-9)
}
