package gateway

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_JoinAndLeave(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "chat:1")
	r.Join("c1", "chat:1")
	r.Join("c2", "chat:1")

	assert.ElementsMatch(t, []string{"chat:1"}, r.Rooms("c1"))
	assert.ElementsMatch(t, []string{"c1", "c2"}, r.Members("chat:1"))
	assert.True(t, r.InRoom("c1", "chat:1"))

	r.Leave("c1", "chat:1")
	assert.False(t, r.InRoom("c1", "chat:1"))
	assert.ElementsMatch(t, []string{"c2"}, r.Members("chat:1"))

	// Leaving a room never joined is a no-op.
	r.Leave("c1", "chat:other")
	assert.Empty(t, r.Rooms("c1"))
}

func TestRegistry_DisconnectReleasesAllRooms(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "chat:c1")
	r.Join("c1", "visitor:v1")
	r.Join("c2", "chat:c1")

	r.Disconnect("c1")

	assert.Empty(t, r.Rooms("c1"))
	assert.ElementsMatch(t, []string{"c2"}, r.Members("chat:c1"))
	assert.Empty(t, r.Members("visitor:v1"))

	// A second disconnect, and disconnecting an unknown connection, are
	// both no-ops.
	r.Disconnect("c1")
	r.Disconnect("never-connected")
	assert.ElementsMatch(t, []string{"c2"}, r.Members("chat:c1"))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			r.Join(id, "chat:shared")
			r.Join(id, fmt.Sprintf("visitor:v%d", n))
			_ = r.Members("chat:shared")
			r.Disconnect(id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.Members("chat:shared"))
	assert.Equal(t, 0, r.ConnectionCount())
}
