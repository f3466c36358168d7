//go:build integration

package testutils

import (
	"context"
	"fmt"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/testcontainers/testcontainers-go"
	tcelasticsearch "github.com/testcontainers/testcontainers-go/modules/elasticsearch"
)

const (
	// ElasticsearchImage is the image integration tests run against.
	ElasticsearchImage = "docker.elastic.co/elasticsearch/elasticsearch:8.11.0"

	elasticsearchPassword = "changeme"
)

// ElasticsearchContainer manages a disposable Elasticsearch node.
type ElasticsearchContainer struct {
	container *tcelasticsearch.ElasticsearchContainer
	Address   string
	Client    *elasticsearch.Client
}

// StartElasticsearch starts an Elasticsearch container and returns a client
// connected to it. Stop it with Stop.
func StartElasticsearch(ctx context.Context) (*ElasticsearchContainer, error) {
	container, err := tcelasticsearch.Run(ctx, ElasticsearchImage, tcelasticsearch.WithPassword(elasticsearchPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to start Elasticsearch container: %w", err)
	}

	esClient, err := es.NewClient(es.Config{
		Addresses: []string{container.Settings.Address},
		Username:  container.Settings.Username,
		Password:  container.Settings.Password,
		CACert:    container.Settings.CACert,
	})
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticsearchContainer{
		container: container,
		Address:   container.Settings.Address,
		Client:    elasticsearch.New(esClient, logger.NewNop()),
	}, nil
}

// Stop stops and removes the container.
func (e *ElasticsearchContainer) Stop() error {
	if e.container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(e.container)
}

// StartElasticsearchForTest starts a container for t and stops it on cleanup.
// It skips in short mode.
func StartElasticsearchForTest(t *testing.T) *ElasticsearchContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container, err := StartElasticsearch(context.Background())
	if err != nil {
		t.Fatalf("failed to start Elasticsearch container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Stop()
	})
	return container
}
