// Package geo provides the device position feed and reverse geocoding.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPermissionDenied is returned while the device has denied or restricted location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPositionUnavailable is returned when no fix has been received yet.
	ErrPositionUnavailable = errors.New("current position unavailable")
	// ErrAuthorizationPending is returned for fixes pushed before the device answered the handshake.
	ErrAuthorizationPending = errors.New("location authorization not determined")
)

const subscriberBuffer = 16

// AuthorizationStatus mirrors the location permission reported by the device.
type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Restricted
	Denied
	Authorized
)

var statusNames = map[AuthorizationStatus]string{
	NotDetermined: "not_determined",
	Restricted:    "restricted",
	Denied:        "denied",
	Authorized:    "authorized",
}

func (s AuthorizationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AuthorizationStatus(%d)", int(s))
}

// ParseAuthorizationStatus accepts the names produced by String, case-insensitively.
func ParseAuthorizationStatus(s string) (AuthorizationStatus, error) {
	for status, name := range statusNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return status, nil
		}
	}
	return NotDetermined, fmt.Errorf("unknown authorization status %q", s)
}

func (s AuthorizationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AuthorizationStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAuthorizationStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Position is a single GPS fix pushed by the device.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Speed     float64   `json:"speed"`    // m/s
	Bearing   float64   `json:"bearing"`  // degrees
	Altitude  float64   `json:"altitude"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts RFC 3339 timestamps with or without a zone suffix,
// reading zoneless values as UTC. A missing timestamp is left zero.
func (p *Position) UnmarshalJSON(data []byte) error {
	type alias Position
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts := strings.TrimSpace(aux.Timestamp)
	if ts == "" {
		p.Timestamp = time.Time{}
		return nil
	}
	if !hasZone(ts) {
		ts += "Z"
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"raw_timestamp": aux.Timestamp,
			"parsed_string": ts,
			"parse_error":   err,
		}).Error("Position: failed to parse timestamp.")
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	p.Timestamp = t
	return nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") || strings.HasSuffix(ts, "z") {
		return true
	}
	if len(ts) < 6 {
		return false
	}
	return strings.ContainsAny(ts[len(ts)-6:], "+-")
}

// Tracker holds the device's authorization state and latest fix, and fans
// new fixes out to subscribers.
type Tracker struct {
	mu          sync.Mutex
	status      AuthorizationStatus
	current     *Position
	subscribers map[chan Position]struct{}
	done        chan struct{}
	closed      bool
	now         func() time.Time
}

// NewTracker returns a tracker waiting for the device's authorization.
func NewTracker() *Tracker {
	return &Tracker{
		subscribers: make(map[chan Position]struct{}),
		done:        make(chan struct{}),
		now:         time.Now,
	}
}

// Status reports the current authorization status.
func (t *Tracker) Status() AuthorizationStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// RequestAuthorization starts the permission handshake. It returns the
// current status; NotDetermined means the device still has to answer.
func (t *Tracker) RequestAuthorization() AuthorizationStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == NotDetermined {
		logrus.Info("Location authorization requested, waiting for device.")
	}
	return t.status
}

// SetAuthorization records the device's answer. Denied and Restricted drop the cached fix.
func (t *Tracker) SetAuthorization(status AuthorizationStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.status
	t.status = status
	if status == Denied || status == Restricted {
		t.current = nil
	}
	if prev != status {
		logrus.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   status.String(),
		}).Info("Location authorization changed.")
	}
}

// Update caches a new fix and publishes it. Fixes are rejected unless the
// device is authorized. A zero timestamp is replaced with now.
func (t *Tracker) Update(p Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case Authorized:
	case NotDetermined:
		return ErrAuthorizationPending
	default:
		return ErrPermissionDenied
	}

	if p.Timestamp.IsZero() {
		p.Timestamp = t.now()
	}

	fields := logrus.Fields{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"accuracy":  p.Accuracy,
		"timestamp": p.Timestamp.Format(time.RFC3339Nano),
	}
	if t.current != nil {
		fields["distance_m"] = fmt.Sprintf("%.2f", Distance(t.current.Latitude, t.current.Longitude, p.Latitude, p.Longitude))
		fields["bearing_deg"] = fmt.Sprintf("%.2f", Bearing(t.current.Latitude, t.current.Longitude, p.Latitude, p.Longitude))
	}
	logrus.WithFields(fields).Debug("Position update received.")

	t.current = &p
	for ch := range t.subscribers {
		select {
		case ch <- p:
		default:
			logrus.Warn("Position subscriber is not keeping up, dropping update.")
		}
	}
	return nil
}

// CurrentPosition returns the latest fix.
func (t *Tracker) CurrentPosition() (Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == Denied || t.status == Restricted {
		return Position{}, ErrPermissionDenied
	}
	if t.current == nil {
		return Position{}, ErrPositionUnavailable
	}
	return *t.current, nil
}

// Subscribe streams every accepted fix until ctx is cancelled or the tracker
// is closed, at which point the channel is closed.
func (t *Tracker) Subscribe(ctx context.Context) <-chan Position {
	ch := make(chan Position, subscriberBuffer)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch
	}
	t.subscribers[ch] = struct{}{}
	count := len(t.subscribers)
	t.mu.Unlock()

	logrus.WithField("subscribers", count).Debug("Position subscriber registered.")

	go func() {
		select {
		case <-ctx.Done():
		case <-t.done:
		}
		t.mu.Lock()
		delete(t.subscribers, ch)
		count := len(t.subscribers)
		t.mu.Unlock()
		close(ch)
		logrus.WithField("subscribers", count).Debug("Position subscriber removed.")
	}()
	return ch
}

// Close ends all subscriptions.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
}
