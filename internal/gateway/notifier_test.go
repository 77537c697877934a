package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/types"
)

func TestNotifierDeliversInOrderAndUnsubscribes(t *testing.T) {
	var n Notifier
	var got []string

	unsubA := n.Subscribe(func(id *types.Identity) {
		if id == nil {
			got = append(got, "a:nil")
			return
		}
		got = append(got, "a:"+id.ID)
	})
	n.Subscribe(func(id *types.Identity) {
		if id == nil {
			got = append(got, "b:nil")
			return
		}
		got = append(got, "b:"+id.ID)
	})

	n.Publish(&types.Identity{ID: "u1"})
	unsubA()
	unsubA()
	n.Publish(nil)

	assert.Equal(t, []string{"a:u1", "b:u1", "b:nil"}, got)
}

func TestNotifierCopiesIdentity(t *testing.T) {
	var n Notifier
	var received *types.Identity
	n.Subscribe(func(id *types.Identity) { received = id })

	original := &types.Identity{ID: "u1"}
	n.Publish(original)

	require.NotNil(t, received)
	received.ID = "changed"
	assert.Equal(t, "u1", original.ID)
}
