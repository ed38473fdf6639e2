package lfobject_test

import (
	"errors"
	"testing"

	"github.com/dargueta/littlefs/lfobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	closed bool
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func TestAndThenClosesOnSuccess(t *testing.T) {
	h := &fakeHandle{}
	err := lfobject.AndThen(func() (*fakeHandle, error) { return h, nil }, func(*fakeHandle) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, h.closed)
}

func TestAndThenClosesEvenWhenCallbackFails(t *testing.T) {
	h := &fakeHandle{}
	sentinel := errors.New("boom")
	err := lfobject.AndThen(func() (*fakeHandle, error) { return h, nil }, func(*fakeHandle) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.True(t, h.closed)
}

func TestAndThenPropagatesOpenError(t *testing.T) {
	sentinel := errors.New("no handle for you")
	called := false
	err := lfobject.AndThen(func() (*fakeHandle, error) { return nil, sentinel }, func(*fakeHandle) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, called)
}
