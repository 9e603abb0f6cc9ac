package valkeycache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tacnavial/tacnavial/internal/geocoding/valkeycache"
)

func TestNew_UnreachableServer(t *testing.T) {
	// Port 1 on loopback refuses connections.
	_, err := valkeycache.New("127.0.0.1:1", 200*time.Millisecond)
	assert.ErrorContains(t, err, "valkey connect")
}
