package executor

import (
	"testing"
	"time"

	"github.com/hanpama/protograph/internal/resolverir"
	"github.com/stretchr/testify/require"
)

func TestCacheControl_EmptyWhenNothingObserved(t *testing.T) {
	cc := newCacheControl()
	require.Equal(t, "", cc.Header())
}

func TestCacheControl_MinimumMaxAgeAcrossCacheNodes(t *testing.T) {
	cc := newCacheControl()
	cc.observe(resolverir.Cache(30*time.Second, &resolverir.IONode{Kind: resolverir.IOHttp}))
	cc.observe(resolverir.Cache(10*time.Second, &resolverir.IONode{Kind: resolverir.IOHttp}))
	cc.observe(resolverir.Cache(60*time.Second, &resolverir.IONode{Kind: resolverir.IOHttp}))

	require.Equal(t, "public, max-age=10", cc.Header())
}

func TestCacheControl_ProtectDowngradesToPrivate(t *testing.T) {
	cc := newCacheControl()
	cc.observe(resolverir.Cache(30*time.Second, &resolverir.IONode{Kind: resolverir.IOHttp}))
	cc.observe(resolverir.Protect([]string{"basic"}, resolverir.IO(&resolverir.IONode{Kind: resolverir.IOHttp})))

	require.Equal(t, "private, max-age=30", cc.Header())
}

func TestCacheControl_ProtectWithNoCacheIsNoStore(t *testing.T) {
	cc := newCacheControl()
	cc.observe(resolverir.Protect([]string{"basic"}, resolverir.IO(&resolverir.IONode{Kind: resolverir.IOHttp})))

	require.Equal(t, "no-store", cc.Header())
}

func TestCacheControl_NilIRIsNoop(t *testing.T) {
	cc := newCacheControl()
	cc.observe(nil)
	require.Equal(t, "", cc.Header())
}
