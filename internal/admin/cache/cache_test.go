package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castellan/castellan/internal/admin/domain"
)

func testClient(id, clientID string) domain.Client {
	return domain.Client{ID: id, ClientID: clientID}
}

func TestPutAndGetBothKeys(t *testing.T) {
	c := NewClientCache()
	client := testClient("cli_01", "admin-console")

	require.True(t, c.PutIfFresh(c.Generation(), client))

	got, ok := c.GetByID("cli_01")
	require.True(t, ok)
	require.Equal(t, "admin-console", got.ClientID)

	got, ok = c.GetByClientID("admin-console")
	require.True(t, ok)
	require.Equal(t, "cli_01", got.ID)
}

func TestMissReturnsFalse(t *testing.T) {
	c := NewClientCache()

	_, ok := c.GetByID("cli_unknown")
	require.False(t, ok)
	_, ok = c.GetByClientID("unknown")
	require.False(t, ok)
}

func TestEvictRemovesBothKeys(t *testing.T) {
	c := NewClientCache()
	client := testClient("cli_01", "admin-console")
	require.True(t, c.PutIfFresh(c.Generation(), client))

	c.Evict(client)

	_, ok := c.GetByID("cli_01")
	require.False(t, ok)
	_, ok = c.GetByClientID("admin-console")
	require.False(t, ok)
}

func TestEvictAllFlushesEverything(t *testing.T) {
	c := NewClientCache()
	require.True(t, c.PutIfFresh(c.Generation(), testClient("cli_01", "a")))
	require.True(t, c.PutIfFresh(c.Generation(), testClient("cli_02", "b")))

	c.EvictAll()

	_, ok := c.GetByID("cli_01")
	require.False(t, ok)
	_, ok = c.GetByClientID("b")
	require.False(t, ok)
}

func TestStalePutIsDropped(t *testing.T) {
	c := NewClientCache()
	client := testClient("cli_01", "admin-console")

	// Reader captures the generation, then a flush lands before its Put.
	gen := c.Generation()
	c.EvictAll()

	require.False(t, c.PutIfFresh(gen, client))
	_, ok := c.GetByID("cli_01")
	require.False(t, ok)

	// A fresh capture after the flush stores fine.
	require.True(t, c.PutIfFresh(c.Generation(), client))
	_, ok = c.GetByID("cli_01")
	require.True(t, ok)
}

func TestTargetedEvictionBumpsGeneration(t *testing.T) {
	c := NewClientCache()
	other := testClient("cli_02", "other")

	gen := c.Generation()
	c.Evict(testClient("cli_01", "admin-console"))

	require.False(t, c.PutIfFresh(gen, other))
}
