package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizer(t *testing.T) {
	a := NewAuthorizer([]int64{10, 20, 10})
	assert.True(t, a.IsAdmin(10))
	assert.True(t, a.IsAdmin(20))
	assert.False(t, a.IsAdmin(30))
	assert.Equal(t, []int64{10, 20}, a.Admins())

	empty := NewAuthorizer(nil)
	assert.False(t, empty.IsAdmin(10))
	assert.Empty(t, empty.Admins())
}
