package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/reqtemplate"
	"github.com/stretchr/testify/require"
)

func TestCallHTTP_ReturnsRawWireResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bar", r.Header.Get("X-Foo"))
		w.Header().Set("Cache-Control", "max-age=5")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	u := New(nil, nil, nil, nil)
	resp, err := u.CallHTTP(context.Background(), &reqtemplate.HTTPRequest{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: map[string][]string{"X-Foo": {"bar"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, []string{"max-age=5"}, resp.Headers["Cache-Control"])
	require.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestCallGraphQL_DecodesDataOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body["query"], "f0: user")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"f0":{"id":"1"}}}`))
	}))
	defer srv.Close()

	u := New(nil, nil, nil, nil)
	out, err := u.CallGraphQL(context.Background(), reqtemplate.GraphQLQuery, srv.URL, nil, "query { f0: user }")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": "1"}, out["f0"])
}

func TestCallGraphQL_ErrorsWhenNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
	}))
	defer srv.Close()

	u := New(nil, nil, nil, nil)
	_, err := u.CallGraphQL(context.Background(), reqtemplate.GraphQLQuery, srv.URL, nil, "query { f0: user }")
	require.Error(t, err)
}

func TestCallScript_DelegatesToWorker(t *testing.T) {
	worker := jsvm.NewRegistry(map[string]jsvm.Func{
		"greet": func(req jsvm.Request) (any, error) {
			return "hi " + req.Args["name"].(string), nil
		},
	})
	u := New(nil, nil, nil, worker)
	out, err := u.CallScript(context.Background(), "greet", jsvm.Request{Args: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	require.Equal(t, "hi Ada", out)
}
