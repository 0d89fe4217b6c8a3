package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetThenGet(t *testing.T) {
	e := New()
	assert.Nil(t, e.Set("example", "foo"))

	value, ok := e.Get("example")
	assert.True(t, ok)
	assert.Equal(t, "foo", value)
}

func TestSetOverwritesExistingKey(t *testing.T) {
	e := New()
	assert.Nil(t, e.Set("HDD", "Hard disk"))
	assert.Nil(t, e.Set("HDD", "Hard disk drive"))

	value, ok := e.Get("HDD")
	assert.True(t, ok)
	assert.Equal(t, "Hard disk drive", value)
}

func TestGetOnMissingKey(t *testing.T) {
	e := New()
	_, ok := e.Get("missing")
	assert.False(t, ok)
}

func TestRemoveThenGet(t *testing.T) {
	e := New()
	assert.Nil(t, e.Set("example", "foo"))
	e.Remove("example")

	_, ok := e.Get("example")
	assert.False(t, ok)
}

func TestRemoveOfAbsentKeyIsNotAnError(t *testing.T) {
	e := New()
	e.Remove("never-existed")
	e.Remove("never-existed")
}

func TestSetOnTombstonedKeyFails(t *testing.T) {
	e := New()
	assert.Nil(t, e.Set("k", "v"))

	ent, ok := e.lookupEntry("k")
	assert.True(t, ok)
	ent.writeGuard.Lock()
	ent.readGuard.Lock()
	ent.alive = false
	ent.readGuard.Unlock()
	ent.writeGuard.Unlock()

	err := e.Set("k", "v2")
	assert.ErrorIs(t, err, ErrZombieKey)
}
