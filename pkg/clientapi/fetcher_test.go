package clientapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/clientapi/mocknode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, nodes ...*mocknode.Node) *clientapi.APIClient {
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		urls = append(urls, n.URL+"/")
	}
	cli, err := clientapi.NewAPIClient(urls, clientapi.WithTimeout(5*time.Second), clientapi.WithWorkers(4))
	require.NoError(t, err)
	return cli
}

func TestNewAPIClient(t *testing.T) {
	_, err := clientapi.NewAPIClient(nil)
	require.Error(t, err)

	_, err = clientapi.NewAPIClient([]string{"http://a", " "})
	require.Error(t, err)

	_, err = clientapi.NewAPIClient([]string{"http://a"}, clientapi.WithWorkers(0))
	require.Error(t, err)

	cli, err := clientapi.NewAPIClient([]string{"http://a/", "http://b//"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b"}, cli.Nodes())
	assert.Equal(t, clientapi.DefaultTimeout, cli.Timeout())
	assert.Equal(t, clientapi.DefaultWorkers, cli.Workers())
}

func TestSelectNodeRoundRobin(t *testing.T) {
	cli, err := clientapi.NewAPIClient([]string{"http://a", "http://b", "http://c"})
	require.NoError(t, err)

	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, cli.SelectNode())
	}
	assert.Equal(t, []string{"http://a", "http://b", "http://c", "http://a", "http://b"}, got)
}

func TestFetchOne(t *testing.T) {
	node := mocknode.New(t)
	node.Get("/ok", http.StatusOK, `{"data":1}`)
	node.Get("/teapot", http.StatusTeapot, `short and stout`)
	cli := newClient(t, node)
	ctx := context.Background()

	resp, err := cli.FetchOne(ctx, clientapi.Request{Node: node.URL, Path: "/ok"}, 0)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"data":1}`, string(resp.Body))

	// 404 is only fine when listed
	_, err = cli.FetchOne(ctx, clientapi.Request{Node: node.URL, Path: "/missing"}, 0)
	var statusErr *clientapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)

	resp, err = cli.FetchOne(ctx, clientapi.Request{
		Node:     node.URL,
		Path:     "/missing",
		Accepted: []int{http.StatusOK, http.StatusNotFound},
	}, 0)
	require.NoError(t, err)
	assert.True(t, resp.NotFound())

	_, err = cli.FetchOne(ctx, clientapi.Request{Node: node.URL, Path: "/teapot"}, 0)
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "short and stout", statusErr.Body)
}

func TestFetchOnePost(t *testing.T) {
	node := mocknode.New(t)
	node.PostData("/rewards", []int{1})
	cli := newClient(t, node)

	resp, err := cli.FetchOne(context.Background(), clientapi.Request{
		Node:   node.URL,
		Method: http.MethodPost,
		Path:   "/rewards",
		Body:   []byte("[]"),
	}, time.Second)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 1, node.Hits(http.MethodPost, "/rewards"))
	assert.Equal(t, 0, node.Hits(http.MethodGet, "/rewards"))
}

func TestFetchOneConnectivity(t *testing.T) {
	node := mocknode.New(t)
	url := node.URL
	node.Close()

	cli, err := clientapi.NewAPIClient([]string{url})
	require.NoError(t, err)
	_, err = cli.FetchOne(context.Background(), clientapi.Request{Node: url, Path: "/x"}, time.Second)

	var connErr *clientapi.ConnectivityError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, url, connErr.Node)
}

func TestFetchManyKeepsOrder(t *testing.T) {
	node := mocknode.New(t)
	node.Get("/a", http.StatusOK, `"a"`)
	node.Get("/b", http.StatusOK, `"b"`)
	node.Get("/c", http.StatusInternalServerError, `boom`)
	cli := newClient(t, node)

	reqs := []clientapi.Request{
		{Node: node.URL, Path: "/a"},
		{Node: node.URL, Path: "/c"},
		{Node: node.URL, Path: "/b"},
	}
	results, err := cli.FetchMany(context.Background(), reqs, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, `"a"`, string(results[0].Body))
	var statusErr *clientapi.StatusError
	require.True(t, errors.As(results[1].Err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, `"b"`, string(results[2].Body))

	_, err = clientapi.Accepted(results)
	var unexpectedErr *clientapi.UnexpectedResponseError
	require.True(t, errors.As(err, &unexpectedErr))
	assert.Equal(t, "/c", unexpectedErr.Path)
}

func TestFetchManyConnectivityAborts(t *testing.T) {
	up := mocknode.New(t)
	up.Get("/a", http.StatusOK, `1`)
	down := mocknode.New(t)
	downURL := down.URL
	down.Close()

	cli, err := clientapi.NewAPIClient([]string{up.URL, downURL})
	require.NoError(t, err)
	_, err = cli.FetchMany(context.Background(), []clientapi.Request{
		{Node: up.URL, Path: "/a"},
		{Node: downURL, Path: "/a"},
	}, 2, time.Second)

	var connErr *clientapi.ConnectivityError
	require.True(t, errors.As(err, &connErr))
}
