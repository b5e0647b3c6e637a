package main

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/pkg/engine"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

func TestRecord_ManagedCollection(t *testing.T) {
	t.Setenv("CELERIX_USER", "ops@example.com")
	store := engine.NewMemStore(nil, nil)

	record(store, schema.ActionUpdate, "articles", "a1", schema.Document{"title": "Launch"})

	recs, err := activity.NewDocumentLog(store, clockwork.NewRealClock(), nil).Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, schema.ActionUpdate, recs[0].Action)
	assert.Equal(t, schema.CollectionArticles, recs[0].Collection)
	assert.Equal(t, "Launch", recs[0].DocumentTitle)
	assert.Equal(t, "ops@example.com", recs[0].UserEmail)
}

func TestRecord_SkipsUnmanagedCollection(t *testing.T) {
	store := engine.NewMemStore(nil, nil)

	record(store, schema.ActionCreate, "scratch", "x", nil)

	cols, err := store.Collections()
	require.NoError(t, err)
	assert.Empty(t, cols)
}
