package withdraw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_PutGetDelete(t *testing.T) {
	store := NewSessionStore(time.Minute)

	assert.Nil(t, store.get(1), "fresh store has no session")

	store.put(1, &session{state: stateAwaitingAmount})
	sess := store.get(1)
	if assert.NotNil(t, sess) {
		assert.Equal(t, stateAwaitingAmount, sess.state)
	}

	// sessions are per user
	assert.Nil(t, store.get(2))

	store.delete(1)
	assert.Nil(t, store.get(1))
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	store.put(1, &session{state: stateAwaitingAmount})
	assert.NotNil(t, store.get(1))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, store.get(1), "expired session is gone")
}

func TestSessionStore_PutRefreshesTTL(t *testing.T) {
	store := NewSessionStore(30 * time.Millisecond)

	store.put(1, &session{state: stateAwaitingAmount})
	time.Sleep(20 * time.Millisecond)

	// advancing a step refreshes the TTL
	sess := store.get(1)
	sess.state = stateAwaitingMethod
	store.put(1, sess)

	time.Sleep(20 * time.Millisecond)
	got := store.get(1)
	if assert.NotNil(t, got, "refreshed session survives the original TTL") {
		assert.Equal(t, stateAwaitingMethod, got.state)
	}
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	store.put(1, &session{state: stateAwaitingAmount})
	store.put(2, &session{state: stateAwaitingMethod})
	assert.Equal(t, 0, store.Sweep(), "nothing expired yet")

	time.Sleep(20 * time.Millisecond)
	store.put(3, &session{state: stateAwaitingAmount})

	assert.Equal(t, 2, store.Sweep())
	assert.Nil(t, store.get(1))
	assert.Nil(t, store.get(2))
	assert.NotNil(t, store.get(3))
}
