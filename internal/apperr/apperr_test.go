package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create order: %w", NotFound("product", "p1"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "product not found: p1", Message(err))
}

func TestPersistenceHidesCause(t *testing.T) {
	cause := errors.New("pq: duplicate key value violates unique constraint")
	err := Persistence(cause)

	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, Message(err), "pq")
}

func TestUnknownErrorsArePersistence(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, "could not complete the operation", Message(err))
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(Unauthenticated()))
	assert.True(t, IsAuth(Forbidden()))
	assert.False(t, IsAuth(EmptyCart()))
	assert.False(t, IsAuth(nil))
}

func TestFromStore(t *testing.T) {
	assert.NoError(t, FromStore(nil))

	nf := NotFound("order", "o1")
	assert.Same(t, nf, FromStore(nf))

	cause := errors.New("connection reset")
	err := FromStore(cause)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorIs(t, err, cause)
}
