package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("hunter2hunter2")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, hasher.Check("hunter2hunter2", hash))
	assert.False(t, hasher.Check("wrong password", hash))
	assert.False(t, hasher.Check("", hash))
	assert.False(t, hasher.Check("hunter2hunter2", "not_a_hash"))
}

func TestBcryptHasher_CustomCost(t *testing.T) {
	hasher := NewBcryptHasher(6)

	hash, err := hasher.Hash("hunter2hunter2")
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
	assert.Equal(t, 6, cost)
}

func TestBcryptHasher_DefaultCostFallback(t *testing.T) {
	hasher := NewBcryptHasher(0)

	hash, err := hasher.Hash("hunter2hunter2")
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
