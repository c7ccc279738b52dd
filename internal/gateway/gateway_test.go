package gateway

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/hub"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
)

// stubResolver derives a deterministic place name from the coordinates it
// was asked about, so tests can verify which coordinates a name was
// resolved for.
type stubResolver struct {
	mu    sync.Mutex
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, lat, lng float64) string {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return placeFor(lat, lng)
}

func placeFor(lat, lng float64) string {
	return fmt.Sprintf("place(%v,%v)", lat, lng)
}

type published struct {
	event string
	data  interface{}
}

// capturePublisher records everything the gateway broadcasts.
type capturePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *capturePublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: event, data: data})
}

func (p *capturePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.events))
	copy(out, p.events)
	return out
}

func newTestGateway(t *testing.T) (*Gateway, *store.MemStore, *stubResolver, *capturePublisher) {
	t.Helper()
	fleet := store.NewMemStore()
	resolver := &stubResolver{}
	pub := &capturePublisher{}
	return New(fleet, resolver, pub), fleet, resolver, pub
}

func seedBus(t *testing.T, fleet *store.MemStore, number, route string, lat, lng float64) models.Bus {
	t.Helper()
	bus := models.Bus{
		BusNumber: number,
		RouteName: route,
		PlaceName: models.InitialPlaceName,
		Lat:       lat,
		Lng:       lng,
	}
	require.NoError(t, fleet.Insert(context.Background(), &bus))
	return bus
}

func TestHandleCoordinateUpdate_ValidEnvelope(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"interior", 17.62, 78.51},
		{"origin", 0, 0},
		{"lat max", 90, 10},
		{"lat min", -90, 10},
		{"lng max", 10, 180},
		{"lng min", 10, -180},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw, fleet, _, _ := newTestGateway(t)
			bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

			updated, err := gw.HandleCoordinateUpdate(context.Background(), bus.ID, tc.lat, tc.lng)
			require.NoError(t, err)
			assert.Equal(t, tc.lat, updated.Lat)
			assert.Equal(t, tc.lng, updated.Lng)

			got, err := fleet.Get(context.Background(), bus.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.lat, got.Lat, "stored coordinates must equal the input exactly")
			assert.Equal(t, tc.lng, got.Lng)
			assert.Equal(t, placeFor(tc.lat, tc.lng), got.PlaceName)
		})
	}
}

func TestHandleCoordinateUpdate_RejectsOutsideEnvelope(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"lat too high", 95.0, 78.0},
		{"lat too low", -90.0001, 78.0},
		{"lng too high", 17.6, 180.0001},
		{"lng too low", 17.6, -181},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw, fleet, resolver, pub := newTestGateway(t)
			bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

			_, err := gw.HandleCoordinateUpdate(context.Background(), bus.ID, tc.lat, tc.lng)
			assert.ErrorIs(t, err, ErrInvalidCoordinates)

			got, gerr := fleet.Get(context.Background(), bus.ID)
			require.NoError(t, gerr)
			assert.Equal(t, 17.6, got.Lat, "store must be unchanged after rejection")
			assert.Equal(t, 78.48, got.Lng)
			assert.Empty(t, pub.all(), "rejected update must not broadcast")
			assert.Zero(t, resolver.calls, "rejected update must not hit the geocoder")
		})
	}
}

func TestHandleCoordinateUpdate_UnknownBus(t *testing.T) {
	gw, _, _, pub := newTestGateway(t)

	_, err := gw.HandleCoordinateUpdate(context.Background(), 9999, 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, pub.all())
}

func TestHandleCoordinateUpdate_BroadcastPairing(t *testing.T) {
	gw, fleet, _, pub := newTestGateway(t)
	bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

	_, err := gw.HandleCoordinateUpdate(context.Background(), bus.ID, 17.7, 78.5)
	require.NoError(t, err)

	events := pub.all()
	require.Len(t, events, 1, "exactly one broadcast per accepted update")
	assert.Equal(t, hub.EventMarkerUpdate, events[0].event)

	marker, ok := events[0].data.(MarkerUpdate)
	require.True(t, ok)
	assert.Equal(t, bus.ID, marker.ID)
	assert.Equal(t, 17.7, marker.Lat)
	assert.Equal(t, 78.5, marker.Lng)
	assert.Equal(t, placeFor(17.7, 78.5), marker.Name)
	assert.Equal(t, "1", marker.NewBusNumber)
	assert.Equal(t, "Rampally x Road", marker.NewRouteName)
}

func TestHandleCoordinateUpdate_ConcurrentUpdatesPairOwnPlaceName(t *testing.T) {
	gw, fleet, _, pub := newTestGateway(t)
	bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

	const writers = 24
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lat := float64(n % 90)
			lng := float64(-(n % 180))
			_, err := gw.HandleCoordinateUpdate(context.Background(), bus.ID, lat, lng)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	events := pub.all()
	require.Len(t, events, writers, "every accepted writer gets its own broadcast")
	for _, e := range events {
		marker, ok := e.data.(MarkerUpdate)
		require.True(t, ok)
		assert.Equal(t, placeFor(marker.Lat, marker.Lng), marker.Name,
			"broadcast place name must match the coordinates it was resolved for")
	}
}

func TestHandleIdentityEdit_ClaimThenHijackAttempt(t *testing.T) {
	gw, fleet, _, pub := newTestGateway(t)
	bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

	claimed, err := gw.HandleIdentityEdit(context.Background(), bus.ID, "1", "Rampally Express")
	require.NoError(t, err)
	assert.True(t, claimed.IsLocked)
	assert.Equal(t, "Rampally Express", claimed.RouteName)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, hub.EventNameUpdated, events[0].event)
	name, ok := events[0].data.(NameUpdated)
	require.True(t, ok)
	assert.Equal(t, bus.ID, name.ID)
	assert.Equal(t, "1", name.NewBusNumber)
	assert.Equal(t, "Rampally Express", name.NewRouteName)
	assert.True(t, name.IsLocked)
	assert.Equal(t, placeFor(17.6, 78.48), name.NewName, "identity edits resolve against current coordinates")

	// Second edit with different values: soft no-op, first claim persists.
	_, err = gw.HandleIdentityEdit(context.Background(), bus.ID, "99", "Hijack")
	assert.ErrorIs(t, err, ErrLocked)

	got, gerr := fleet.Get(context.Background(), bus.ID)
	require.NoError(t, gerr)
	assert.Equal(t, "1", got.BusNumber)
	assert.Equal(t, "Rampally Express", got.RouteName)
	assert.Len(t, pub.all(), 1, "locked edit must not broadcast")
}

func TestHandleIdentityEdit_UnknownBus(t *testing.T) {
	gw, _, _, pub := newTestGateway(t)

	_, err := gw.HandleIdentityEdit(context.Background(), 9999, "9", "Ghost Route")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, pub.all())
}

func TestHandleIdentityEdit_RacingClaimsProduceOneBroadcast(t *testing.T) {
	gw, fleet, _, pub := newTestGateway(t)
	bus := seedBus(t, fleet, "1", "Rampally x Road", 17.6, 78.48)

	const claimers = 12
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			gw.HandleIdentityEdit(context.Background(), bus.ID, fmt.Sprintf("c%d", n), "claimed")
		}(i)
	}
	wg.Wait()

	assert.Len(t, pub.all(), 1, "only the winning claim broadcasts")
	got, err := fleet.Get(context.Background(), bus.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLocked)
}
