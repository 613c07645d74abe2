package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
