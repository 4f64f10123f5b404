package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"instainstru/internal/config"
)

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := NewClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}
