package lferrors_test

import (
	"errors"
	"testing"

	"github.com/dargueta/littlefs/lferrors"
	"github.com/stretchr/testify/assert"
)

func TestWithMessage(t *testing.T) {
	err := lferrors.WithMessage(lferrors.NoSpace, "allocator exhausted")
	assert.Equal(t, "no space left on device: allocator exhausted", err.Error())
	assert.ErrorIs(t, err, lferrors.NoSpace)
}

func TestWrapPreservesParent(t *testing.T) {
	original := errors.New("device timeout")
	wrapped := lferrors.IOFailed.Wrap(original)

	assert.Equal(t, "input/output error: device timeout", wrapped.Error())
	assert.ErrorIs(t, wrapped, original)
	assert.ErrorIs(t, wrapped, lferrors.IOFailed)
}

func TestWrapNil(t *testing.T) {
	wrapped := lferrors.Corruption.Wrap(nil)
	assert.Equal(t, "structure needs cleaning", wrapped.Error())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "directory not empty", lferrors.DirNotEmpty.String())
}
