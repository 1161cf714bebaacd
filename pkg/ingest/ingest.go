package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/rs/zerolog"

	"github.com/edgesoc/sentinel/pkg/config"
	"github.com/edgesoc/sentinel/pkg/metrics"
	"github.com/edgesoc/sentinel/pkg/retry"
	"github.com/edgesoc/sentinel/pkg/state"
)

// BulkError reports a bulk request where the collaborator accepted the
// batch but flagged per-document failures. The whole batch is treated as
// failed for retry purposes.
type BulkError struct {
	Items   int
	Failed  int
	Reasons []string
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk ingest: %d of %d documents failed: %s",
		e.Failed, e.Items, strings.Join(e.Reasons, "; "))
}

// BulkIndexer ships batches of JSON documents to the search engine's bulk
// API with retry/backoff.
type BulkIndexer struct {
	client       *opensearch.Client
	store        *state.Store
	logger       zerolog.Logger
	policy       retry.Policy
	indexPattern string

	now func() time.Time
}

// New creates a bulk indexer. The search endpoint and region are required;
// a missing one aborts construction.
func New(search config.SearchConfig, indexPattern string, store *state.Store, logger zerolog.Logger) (*BulkIndexer, error) {
	if search.Endpoint == "" {
		return nil, fmt.Errorf("%w: search.endpoint", config.ErrMissingSetting)
	}
	if search.Region == "" {
		return nil, fmt.Errorf("%w: search.region", config.ErrMissingSetting)
	}
	if indexPattern == "" {
		indexPattern = "suricata-2006.01.02"
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{search.Endpoint},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	return &BulkIndexer{
		client:       client,
		store:        store,
		logger:       logger,
		policy:       retry.DefaultPolicy(),
		indexPattern: indexPattern,
		now:          time.Now,
	}, nil
}

// Send ships docs as one bulk batch. On success the ingestion counter
// advances by the batch size; on terminal failure the error counter
// advances, aws_ready flips false and last_error records the failure.
func (b *BulkIndexer) Send(ctx context.Context, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	payload, err := b.buildPayload(docs)
	if err != nil {
		return err
	}

	batchID := uuid.New().String()
	logger := b.logger.With().Str("batch_id", batchID).Int("docs", len(docs)).Logger()

	_, err = retry.Do(ctx, b.policy, logger, "bulk_ingest",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.doBulk(ctx, payload)
		})
	if err != nil {
		metrics.ErrorsTotal.Inc()
		b.store.Set(state.KeyAWSReady, false)
		b.store.SetError(err.Error())
		logger.Error().Err(err).Msg("bulk ingest failed")
		return err
	}

	metrics.IngestionTotal.Add(float64(len(docs)))
	logger.Debug().Msg("bulk ingest succeeded")
	return nil
}

// buildPayload renders the newline-delimited action/document pair sequence
// the bulk API accepts.
func (b *BulkIndexer) buildPayload(docs []map[string]any) (string, error) {
	index := b.now().Format(b.indexPattern)

	var sb strings.Builder
	action, _ := json.Marshal(map[string]any{
		"index": map[string]string{"_index": index},
	})
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to encode document: %w", err)
		}
		sb.Write(action)
		sb.WriteByte('\n')
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (b *BulkIndexer) doBulk(ctx context.Context, payload string) error {
	req := opensearchapi.BulkRequest{
		Body: strings.NewReader(payload),
	}
	res, err := req.Do(ctx, b.client)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request rejected: %s", res.Status())
	}

	return parseBulkResponse(res.Body)
}

// parseBulkResponse scans the per-item results; any reported item error
// fails the whole batch.
func parseBulkResponse(r io.Reader) error {
	var body struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !body.Errors {
		return nil
	}

	be := &BulkError{Items: len(body.Items)}
	for _, item := range body.Items {
		for _, result := range item {
			if result.Error != nil {
				be.Failed++
				if len(be.Reasons) < 3 {
					be.Reasons = append(be.Reasons,
						fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason))
				}
			}
		}
	}
	return be
}
