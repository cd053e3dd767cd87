// Package mocknode serves canned beacon API answers over httptest, for tests
// of the packages that talk to beacon nodes.
package mocknode

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type route struct {
	status int
	body   []byte
}

// Node is a fake beacon node. Unknown paths answer 404.
type Node struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]route
	hits   map[string]int
}

// New starts a node that is closed with the test.
func New(t testing.TB) *Node {
	n := &Node{
		routes: make(map[string]route),
		hits:   make(map[string]int),
	}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Close)
	return n
}

func key(method, uri string) string {
	return method + " " + uri
}

// Set registers the raw answer for method and request URI (path plus query).
func (n *Node) Set(method, uri string, status int, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[key(method, uri)] = route{status: status, body: []byte(body)}
}

// SetData registers a 200 answer wrapping data in the usual envelope.
func (n *Node) SetData(method, uri string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		panic(fmt.Sprintf("unable to marshal mock data: %s", err))
	}
	n.Set(method, uri, http.StatusOK, string(payload))
}

func (n *Node) Get(uri string, status int, body string) {
	n.Set(http.MethodGet, uri, status, body)
}

func (n *Node) GetData(uri string, data interface{}) {
	n.SetData(http.MethodGet, uri, data)
}

func (n *Node) PostData(uri string, data interface{}) {
	n.SetData(http.MethodPost, uri, data)
}

// Hits returns how many times method and uri were requested.
func (n *Node) Hits(method, uri string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hits[key(method, uri)]
}

// TotalHits returns the number of requests served.
func (n *Node) TotalHits() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, h := range n.hits {
		total += h
	}
	return total
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	k := key(r.Method, r.URL.RequestURI())
	n.mu.Lock()
	n.hits[k]++
	rt, ok := n.routes[k]
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"message":"NOT_FOUND"}`))
		return
	}
	w.WriteHeader(rt.status)
	_, _ = w.Write(rt.body)
}
