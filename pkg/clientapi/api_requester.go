package clientapi

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	moduleName = "api-cli"
	log        = logrus.WithField(
		"module", moduleName)
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultWorkers = 20
)

// APIClient talks to a set of beacon nodes through their REST API.
type APIClient struct {
	nodes   []string
	client  *http.Client
	timeout time.Duration
	workers int

	next    atomic.Uint64
	metrics *requestMetrics
}

type APIClientOption func(*APIClient) error

func NewAPIClient(nodes []string, options ...APIClientOption) (*APIClient, error) {
	if len(nodes) == 0 {
		return nil, errors.New("at least one beacon node endpoint is required")
	}
	cleaned := make([]string, 0, len(nodes))
	for _, node := range nodes {
		node = strings.TrimRight(strings.TrimSpace(node), "/")
		if node == "" {
			return nil, errors.New("empty beacon node endpoint")
		}
		cleaned = append(cleaned, node)
	}

	cli := &APIClient{
		nodes:   cleaned,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		workers: DefaultWorkers,
		metrics: newRequestMetrics(),
	}
	for _, o := range options {
		if err := o(cli); err != nil {
			return nil, err
		}
	}
	log.Debugf("generated api client for %d nodes", len(cli.nodes))
	return cli, nil
}

func WithTimeout(timeout time.Duration) APIClientOption {
	return func(s *APIClient) error {
		if timeout <= 0 {
			return errors.Errorf("invalid request timeout %s", timeout)
		}
		s.timeout = timeout
		return nil
	}
}

func WithWorkers(workers int) APIClientOption {
	return func(s *APIClient) error {
		if workers <= 0 {
			return errors.Errorf("invalid number of request workers %d", workers)
		}
		s.workers = workers
		return nil
	}
}

func WithHTTPClient(client *http.Client) APIClientOption {
	return func(s *APIClient) error {
		s.client = client
		return nil
	}
}

func WithPromMetrics(prom *metrics.PrometheusMetrics) APIClientOption {
	return func(s *APIClient) error {
		if prom == nil {
			return nil
		}
		return prom.AddMetricsModule(s.metrics.getPrometheusMetrics())
	}
}

// Nodes returns the configured endpoints in configuration order.
func (s *APIClient) Nodes() []string {
	out := make([]string, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// SelectNode rotates over the configured nodes for queries that do not need
// every node to answer.
func (s *APIClient) SelectNode() string {
	n := s.next.Add(1) - 1
	return s.nodes[n%uint64(len(s.nodes))]
}

func (s *APIClient) Timeout() time.Duration {
	return s.timeout
}

func (s *APIClient) Workers() int {
	return s.workers
}
