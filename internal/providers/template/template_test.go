package template

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFetchesOncePerURL(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("<div>" + r.URL.Path + "</div>"))
	}))
	defer srv.Close()

	c := New(resty.New().SetBaseURL(srv.URL))

	first, err := c.Get(context.Background(), "/tpl/list.html")
	require.NoError(t, err)
	assert.Equal(t, "<div>/tpl/list.html</div>", first)

	second, err := c.Get(context.Background(), "/tpl/list.html")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))

	_, err = c.Get(context.Background(), "/tpl/disk.html")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&hits))
	assert.Equal(t, 2, c.Len())
}

func TestGetFailureIsNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "not yet", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(resty.New().SetBaseURL(srv.URL))

	_, err := c.Get(context.Background(), "/tpl/list.html")
	require.Error(t, err)
	assert.Zero(t, c.Len())

	fail.Store(false)
	fragment, err := c.Get(context.Background(), "/tpl/list.html")
	require.NoError(t, err)
	assert.Equal(t, "ok", fragment)
}
