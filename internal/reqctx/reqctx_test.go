package reqctx_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-service/internal/reqctx"
)

func TestBeginAndFrom(t *testing.T) {
	ctx, scope := reqctx.Begin(context.Background(), "rid-1")

	require.NotNil(t, scope)
	assert.Equal(t, "rid-1", scope.RequestID())
	assert.Empty(t, scope.UserPublicID())
	assert.Same(t, scope, reqctx.From(ctx))
}

func TestFromOutsideScope(t *testing.T) {
	scope := reqctx.From(context.Background())
	assert.Nil(t, scope)

	// All reads must be safe on the nil scope.
	assert.Empty(t, scope.RequestID())
	assert.Empty(t, scope.UserPublicID())
	scope.SetUserPublicID("ignored")
	assert.Nil(t, reqctx.Fields(context.Background()))
}

func TestUpdateMutatesInPlace(t *testing.T) {
	ctx, scope := reqctx.Begin(context.Background(), "rid-1")

	// A component that captured the context before authentication sees
	// the identity set later through the same store.
	captured := reqctx.From(ctx)

	scope.SetUserPublicID("pub-1")
	assert.Equal(t, "pub-1", captured.UserPublicID())
	assert.Equal(t, "rid-1", captured.RequestID(), "correlation id is untouched by identity updates")
}

func TestDerivedContextSharesScope(t *testing.T) {
	ctx, scope := reqctx.Begin(context.Background(), "rid-1")
	child, cancel := context.WithCancel(ctx)
	defer cancel()

	reqctx.From(child).SetUserPublicID("pub-1")
	assert.Equal(t, "pub-1", scope.UserPublicID())
}

func TestFieldsIncludeIdentityOnceKnown(t *testing.T) {
	ctx, scope := reqctx.Begin(context.Background(), "rid-1")

	fields := reqctx.Fields(ctx)
	require.Len(t, fields, 1)

	scope.SetUserPublicID("pub-1")
	fields = reqctx.Fields(ctx)
	require.Len(t, fields, 2)
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rid := fmt.Sprintf("rid-%d", i)
			ctx, scope := reqctx.Begin(context.Background(), rid)

			scope.SetUserPublicID(fmt.Sprintf("pub-%d", i))

			got := reqctx.From(ctx)
			if got.RequestID() != rid {
				t.Errorf("scope %d observed foreign request id %s", i, got.RequestID())
			}
			if got.UserPublicID() != fmt.Sprintf("pub-%d", i) {
				t.Errorf("scope %d observed foreign identity %s", i, got.UserPublicID())
			}
		}(i)
	}
	wg.Wait()
}
