package clientapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const maxErrorBody = 256

// Request describes one call to one node.
type Request struct {
	Node     string
	Method   string
	Path     string
	Body     []byte
	Accepted []int
	// Endpoint labels the request in metrics and logs
	Endpoint string
}

func (r Request) accepts(code int) bool {
	if len(r.Accepted) == 0 {
		return code == http.StatusOK
	}
	for _, c := range r.Accepted {
		if c == code {
			return true
		}
	}
	return false
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// Response is an answer whose status code was accepted by the request.
type Response struct {
	Request Request
	Code    int
	Body    []byte
}

func (r Response) OK() bool {
	return r.Code == http.StatusOK
}

func (r Response) NotFound() bool {
	return r.Code == http.StatusNotFound
}

// Result is the outcome of one request of a FetchMany call. Err is either nil
// or a *StatusError.
type Result struct {
	Response
	Err error
}

// FetchOne performs a single request. A status code outside req.Accepted
// yields a *StatusError, transport failures a *ConnectivityError.
func (s *APIClient) FetchOne(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, req.method(), req.Node+req.Path, body)
	if err != nil {
		return Response{}, errors.Wrapf(err, "unable to compose request %s%s", req.Node, req.Path)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		s.metrics.observe(req.Endpoint, 0, time.Since(start))
		return Response{}, &ConnectivityError{Node: req.Node, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	s.metrics.observe(req.Endpoint, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return Response{}, &ConnectivityError{Node: req.Node, Path: req.Path, Err: err}
	}
	log.Tracef("%s %s%s -> %d (%s)", req.method(), req.Node, req.Path, httpResp.StatusCode, time.Since(start))

	resp := Response{Request: req, Code: httpResp.StatusCode, Body: payload}
	if !req.accepts(httpResp.StatusCode) {
		return resp, &StatusError{
			Node: req.Node,
			Path: req.Path,
			Code: httpResp.StatusCode,
			Body: truncate(payload, maxErrorBody),
		}
	}
	return resp, nil
}

// FetchMany issues the requests with at most limit of them in flight and
// waits for all of them. Non accepted status codes are reported per request
// in Result.Err; any connectivity failure aborts the call. Results keep the
// order of reqs.
func (s *APIClient) FetchMany(ctx context.Context, reqs []Request, limit int, timeout time.Duration) ([]Result, error) {
	if limit <= 0 {
		limit = s.workers
	}
	results := make([]Result, len(reqs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := s.FetchOne(ctx, req, timeout)
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				results[i] = Result{Response: resp, Err: err}
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = Result{Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Accepted returns the responses of results, failing with an
// UnexpectedResponseError on the first non accepted status.
func Accepted(results []Result) ([]Response, error) {
	out := make([]Response, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			return nil, asUnexpected(res.Err)
		}
		out = append(out, res.Response)
	}
	return out, nil
}

func asUnexpected(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &UnexpectedResponseError{
			Node:   statusErr.Node,
			Path:   statusErr.Path,
			Code:   statusErr.Code,
			Reason: "unexpected status code: " + statusErr.Body,
		}
	}
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
