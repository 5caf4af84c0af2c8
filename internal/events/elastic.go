package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
)

// ElasticIndexer keeps every event as a document, an audit trail of shift
// history that survives clear_history.
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndexer(cfg elasticsearch.Config, index string) (*ElasticIndexer, error) {
	if index == "" {
		return nil, errors.New("elasticsearch: empty index")
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s %s", res.Status(), body)
	}

	return &ElasticIndexer{client: client, index: index}, nil
}

func (x *ElasticIndexer) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("elasticsearch: json.Marshal failed: %w", err)
	}

	res, err := x.client.Index(
		x.index,
		bytes.NewReader(body),
		x.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch: index: %s", res.Status())
	}
	return nil
}
