package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go"

	"arbitron/internal/domain/arbitration"
)

var _ arbitration.EventPublisher = (*CaseEventIndexer)(nil)

// CaseEventIndexer mirrors committed case events into an OpenSearch index so
// case history is searchable across cases. Postgres stays the source of
// truth; a failed index write is logged by the caller and not retried.
type CaseEventIndexer struct {
	client *opensearch.Client
	index  string
}

func NewCaseEventIndexer(ctx context.Context, urls []string, index string) (*CaseEventIndexer, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	cfg := opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	indexer := &CaseEventIndexer{client: client, index: index}

	if err := indexer.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return indexer, nil
}

func (s *CaseEventIndexer) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"event_id":   map[string]any{"type": "keyword"},
				"case_id":    map[string]any{"type": "keyword"},
				"kind":       map[string]any{"type": "keyword"},
				"created_at": map[string]any{"type": "date"},
				"data":       map[string]any{"type": "object", "enabled": true},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0,
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

func (s *CaseEventIndexer) PublishCaseEvents(ctx context.Context, events []arbitration.CaseEvent) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal case event %s: %w", event.EventID, err)
		}

		// Document id is the event id, so replayed publishes overwrite
		// instead of duplicating.
		res, err := s.client.Index(
			s.index,
			bytes.NewReader(payload),
			s.client.Index.WithDocumentID(event.EventID),
			s.client.Index.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("index case event %s: %w", event.EventID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index case event %s: %s", event.EventID, res.String())
		}
	}
	return nil
}
