package highlight

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(d time.Duration) (*Manager[string], *clockwork.FakeClock, chan Expiry[string]) {
	clock := clockwork.NewFakeClock()
	fired := make(chan Expiry[string], 16)
	m := NewManager(clock, d, func(e Expiry[string]) { fired <- e })
	return m, clock, fired
}

func receive(t *testing.T, fired <-chan Expiry[string]) Expiry[string] {
	t.Helper()
	select {
	case e := <-fired:
		return e
	case <-time.After(time.Second):
		t.Fatal("expected a highlight expiry")
		return Expiry[string]{}
	}
}

func assertNoExpiry(t *testing.T, fired <-chan Expiry[string]) {
	t.Helper()
	select {
	case e := <-fired:
		t.Fatalf("unexpected expiry for %q", e.Key)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_FiresAfterDuration(t *testing.T) {
	m, clock, fired := newTestManager(DetailDuration)
	defer m.Close()

	deadline := m.Schedule("home")
	assert.Equal(t, clock.Now().Add(DetailDuration), deadline)
	assert.True(t, m.Pending("home"))

	clock.Advance(DetailDuration - time.Millisecond)
	assertNoExpiry(t, fired)

	clock.Advance(time.Millisecond)
	e := receive(t, fired)
	assert.Equal(t, "home", e.Key)
	assert.True(t, m.Claim(e))
	assert.False(t, m.Pending("home"))
}

// Two mutations in quick succession produce one reset, timed from the second.
func TestManager_RescheduleSupersedesPendingReset(t *testing.T) {
	m, clock, fired := newTestManager(DetailDuration)
	defer m.Close()

	m.Schedule("home")
	clock.Advance(time.Second)
	second := m.Schedule("home")
	assert.Equal(t, 1, m.Len())

	clock.Advance(2 * time.Second) // first deadline passes
	assertNoExpiry(t, fired)

	clock.Advance(time.Second) // second deadline
	e := receive(t, fired)
	assert.True(t, m.Claim(e))
	assert.Equal(t, clock.Now(), second)

	clock.Advance(time.Minute)
	assertNoExpiry(t, fired)
}

func TestManager_IndependentKeys(t *testing.T) {
	m, clock, fired := newTestManager(ListDuration)
	defer m.Close()

	m.Schedule("m1/HOME")
	m.Schedule("m2/AWAY")
	clock.Advance(ListDuration)

	keys := map[string]bool{}
	for i := 0; i < 2; i++ {
		e := receive(t, fired)
		require.True(t, m.Claim(e))
		keys[e.Key] = true
	}
	assert.Equal(t, map[string]bool{"m1/HOME": true, "m2/AWAY": true}, keys)
}

func TestManager_StaleGenerationIsNotClaimed(t *testing.T) {
	m, _, _ := newTestManager(DetailDuration)
	defer m.Close()

	m.Schedule("away")
	stale := Expiry[string]{Key: "away", Generation: 1}
	m.Schedule("away")

	assert.False(t, m.Claim(stale))
	assert.True(t, m.Pending("away"))
	assert.True(t, m.Claim(Expiry[string]{Key: "away", Generation: 2}))
}

func TestManager_CancelAndClose(t *testing.T) {
	m, clock, fired := newTestManager(DetailDuration)

	m.Schedule("home")
	m.Schedule("away")
	m.Cancel("home")
	assert.False(t, m.Pending("home"))

	m.Close()
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.Schedule("home").IsZero())

	clock.Advance(time.Minute)
	assertNoExpiry(t, fired)
}
