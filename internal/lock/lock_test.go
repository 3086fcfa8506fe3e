package lock

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir, 0)
	require.NoError(t, err)

	_, err = Acquire(dir, 0)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, first.Release())

	second, err := Acquire(dir, 0)
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}

func TestAcquire_CreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/data"

	l, err := Acquire(dir, 0)
	require.NoError(t, err)
	defer l.Release()

	_, err = os.Stat(Path(dir))
	assert.NoError(t, err)
}

func TestAcquire_WaitsThenGivesUp(t *testing.T) {
	dir := t.TempDir()
	held, err := Acquire(dir, 0)
	require.NoError(t, err)
	defer held.Release()

	sleeps := 0
	lockSleep = func(time.Duration) { sleeps++ }
	defer func() { lockSleep = time.Sleep }()

	_, err = Acquire(dir, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrHeld)
	assert.Greater(t, sleeps, 0)
}

func TestAcquire_FlockError(t *testing.T) {
	boom := errors.New("boom")
	orig := flockFn
	flockFn = func(int, int) error { return boom }
	defer func() { flockFn = orig }()

	_, err := Acquire(t.TempDir(), time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
