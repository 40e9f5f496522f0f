package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/hashicorp/go-multierror"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// Mirror bulk-indexes committed records, one index per source.
type Mirror struct {
	client *es.Client
	prefix string
	log    logger.Logger
}

// NewMirror wraps an existing client.
func NewMirror(client *es.Client, prefix string, log logger.Logger) *Mirror {
	if prefix == "" {
		prefix = DefaultIndexPrefix
	}
	return &Mirror{client: client, prefix: prefix, log: log}
}

// IndexName returns the index holding source's records.
func (m *Mirror) IndexName(source string) string {
	return strings.ToLower(m.prefix + "_" + source)
}

type bulkMeta struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Index writes records with their IDs as document IDs, so re-indexing a
// page overwrites instead of duplicating.
func (m *Mirror) Index(ctx context.Context, source string, records []domain.ItemRecord) error {
	if len(records) == 0 {
		return nil
	}

	indexName := m.IndexName(source)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		if err := enc.Encode(bulkMeta{Index: bulkTarget{Index: indexName, ID: records[i].ID}}); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode record %s: %w", records[i].ID, err)
		}
	}

	res, err := m.client.Bulk(bytes.NewReader(buf.Bytes()), m.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk request returned %s: %s", res.Status(), body)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !parsed.Errors {
		m.log.Debug("Indexed records",
			logger.Source(source), logger.String("index", indexName), logger.Int("count", len(records)))
		return nil
	}

	var result *multierror.Error
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error != nil {
				result = multierror.Append(result,
					fmt.Errorf("document %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason))
			}
		}
	}
	return result.ErrorOrNil()
}
