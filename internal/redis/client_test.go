package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("redis://:pw@localhost:6380/2")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	assert.Equal(t, "pw", c.Options().Password)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("http://localhost:6379")
	assert.Error(t, err)
}
