package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dineboard/table-order-app/utils"
)

func TestGuestSessionClose(t *testing.T) {
	session := NewGuestSession(7)
	assert.True(t, session.IsActive())
	assert.NotEmpty(t, session.SessionKey)
	assert.Equal(t, uint(7), *session.TableID)

	assert.NoError(t, session.Close())
	assert.Equal(t, SessionClosed, session.Status)
	assert.NotNil(t, session.ClosedAt)

	err := session.Close()
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
}

func TestCounterSessionHasNoTable(t *testing.T) {
	session := NewCounterSession()
	assert.Nil(t, session.TableID)
	assert.True(t, session.IsActive())
}

func TestMergeWithCustomer(t *testing.T) {
	session := NewGuestSession(1)
	assert.NoError(t, session.MergeWithCustomer(99))
	assert.Equal(t, uint(99), *session.CustomerID)
	assert.True(t, session.IsActive())

	assert.NoError(t, session.Close())
	err := session.MergeWithCustomer(100)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
}
