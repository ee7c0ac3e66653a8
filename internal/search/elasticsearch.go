// internal/search/elasticsearch.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"grantmatch/internal/common/logger"
	"grantmatch/internal/models"
)

var (
	ErrSearchFailed     = errors.New("SEARCH_QUERY_FAILED")
	ErrMissingEmbedding = errors.New("profile has no embedding")
)

// ElasticsearchSearcher retrieves candidates with a knn query over the
// opportunity embedding field.
type ElasticsearchSearcher struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchSearcher(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchSearcher {
	return &ElasticsearchSearcher{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

func (s *ElasticsearchSearcher) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if len(q.Profile.Embedding) == 0 {
		return nil, ErrMissingEmbedding
	}

	body := buildKnnQuery(q)
	raw, _ := json.Marshal(body)

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(raw)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	candidates := make([]Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var opp models.Opportunity
		if err := json.Unmarshal(hit.Source, &opp); err != nil {
			s.logger.Warn("skipping unparseable opportunity document", map[string]interface{}{
				"id":    hit.ID,
				"error": err,
			})
			continue
		}
		if opp.ID == "" {
			opp.ID = hit.ID
		}
		candidates = append(candidates, Candidate{
			OpportunityID: opp.ID,
			Similarity:    hit.Score,
			Opportunity:   opp,
		})
	}

	s.logger.Debug("candidate retrieval complete", map[string]interface{}{
		"hits":  len(candidates),
		"took":  parsed.Took,
		"limit": q.Limit,
	})

	return candidates, nil
}

// buildKnnQuery builds the knn search body. min_score prunes candidates
// below the similarity floor on the server side.
func buildKnnQuery(q Query) map[string]interface{} {
	numCandidates := q.Limit * 4
	if numCandidates > 10000 {
		numCandidates = 10000
	}

	body := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   q.Profile.Embedding,
			"k":              q.Limit,
			"num_candidates": numCandidates,
		},
		"size":    q.Limit,
		"_source": map[string]interface{}{"excludes": []string{"embedding"}},
	}
	if q.MinSimilarity > 0 {
		body["min_score"] = q.MinSimilarity
	}
	return body
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
