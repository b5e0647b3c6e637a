package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-cms/pkg/engine"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

func TestClientList_Refresh(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	list := NewClientList(store, nil)

	require.NoError(t, list.Refresh())
	assert.Empty(t, list.Clients(), "missing document means no clients")

	require.NoError(t, store.Set("settings", ClientsID, schema.Document{"items": []any{
		map[string]any{"name": "Acme", "url": "https://acme.test"},
		"Globex",
		"",
		map[string]any{"url": "nameless"},
		42.0,
	}}))
	require.NoError(t, list.Refresh())

	assert.Equal(t, []Client{
		{Name: "Acme", URL: "https://acme.test"},
		{Name: "Globex"},
	}, list.Clients())
}

func TestClientList_Watch(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	list := NewClientList(store, nil)
	require.NoError(t, list.Refresh())
	list.Watch(store)
	t.Cleanup(list.Close)

	require.NoError(t, store.Set("settings", "theme", schema.Document{"items": []any{"ignored"}}))
	require.NoError(t, store.Set("settings", ClientsID, schema.Document{"items": []any{"Initech"}}))

	assert.Eventually(t, func() bool {
		c := list.Clients()
		return len(c) == 1 && c[0].Name == "Initech"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Delete("settings", ClientsID))
	assert.Eventually(t, func() bool {
		return len(list.Clients()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientList_ClientsIsACopy(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	store.Set("settings", ClientsID, schema.Document{"items": []any{"Acme"}})
	list := NewClientList(store, nil)
	require.NoError(t, list.Refresh())

	got := list.Clients()
	got[0].Name = "mutated"
	assert.Equal(t, "Acme", list.Clients()[0].Name)
}
