package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestCheckHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	up := func(context.Context) error { return nil }
	status := CheckHealth(context.Background(), up, []*redis.Client{client})
	assert.True(t, status.Store)
	assert.Equal(t, []bool{true}, status.Redis)
	assert.True(t, status.Healthy())
	assert.Equal(t, status, GetHealthStatus())

	mr.Close()
	down := func(context.Context) error { return errors.New("no route") }
	status = CheckHealth(context.Background(), down, []*redis.Client{client})
	assert.False(t, status.Store)
	assert.Equal(t, []bool{false}, status.Redis)
	assert.False(t, status.Healthy())
}
