package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutboxBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, OutboxBackoff(0))
	assert.Equal(t, 5*time.Second, OutboxBackoff(1))
	assert.Equal(t, 10*time.Second, OutboxBackoff(2))
	assert.Equal(t, 20*time.Second, OutboxBackoff(3))
	assert.Equal(t, 320*time.Second, OutboxBackoff(7))
	assert.Equal(t, 10*time.Minute, OutboxBackoff(8))
	assert.Equal(t, 10*time.Minute, OutboxBackoff(19))
}

func TestOutboxPublishExhausted(t *testing.T) {
	assert.False(t, OutboxPublishExhausted(19))
	assert.True(t, OutboxPublishExhausted(20))
}
