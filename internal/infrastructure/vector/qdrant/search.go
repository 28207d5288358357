package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// SearchClient runs hybrid retrieval against the summary collection: a dense
// prefetch over the query embedding and a sparse lexical prefetch, fused
// server-side with reciprocal rank fusion.
type SearchClient struct {
	client   *Client
	embedder ports.Embedder
}

func NewSearchClient(client *Client, embedder ports.Embedder) *SearchClient {
	return &SearchClient{client: client, embedder: embedder}
}

func (s *SearchClient) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		return nil, nil
	}

	dense, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	prefetchLimit := limit * 4
	request := map[string]any{
		"prefetch": []map[string]any{
			{
				"query": dense,
				"using": denseVectorName,
				"limit": prefetchLimit,
			},
			{
				"query": encodeSparseText(query),
				"using": sparseVectorName,
				"limit": prefetchLimit,
			},
		},
		"query":        map[string]any{"fusion": "rrf"},
		"limit":        limit,
		"with_payload": true,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", s.client.baseURL, s.client.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Nothing indexed yet.
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("qdrant query status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(decoded.Result.Points))
	for _, point := range decoded.Result.Points {
		fragmentID := getStringPayload(point.Payload, "fragment_id")
		if fragmentID == "" {
			fragmentID = fmt.Sprintf("%v", point.ID)
		}
		hits = append(hits, domain.SearchHit{
			FragmentID: fragmentID,
			Snippet:    getStringPayload(point.Payload, "snippet"),
			Score:      point.Score,
		})
	}
	return hits, nil
}
