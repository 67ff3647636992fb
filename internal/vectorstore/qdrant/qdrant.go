package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachrag/internal/domain"
	"coachrag/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// It uses cosine distance and creates its collection on Init. Each Storage
// owns one collection; Clear drops it.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	inserted   int
	client     *http.Client
}

var _ vectorstore.Storage = (*Storage)(nil)

// Config contains connection details for a Qdrant collection.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewStorage creates a client for cfg.Collection.
func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Collection returns the collection name this storage writes to.
func (s *Storage) Collection() string { return s.collection }

// Init creates the collection for vectors of the given dimension.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.dimension = dimension
	s.inserted = 0
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.send(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

// Upsert writes documents as points. Point IDs must be UUIDs or integers, so
// non-UUID document IDs are mapped to a name-based UUID.
func (s *Storage) Upsert(ctx context.Context, docs []domain.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	points := make([]map[string]any, len(docs))
	for i := range docs {
		if len(vectors[i]) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
		points[i] = map[string]any{
			"id":     pointID(docs[i].ID),
			"vector": vectors[i],
			"payload": map[string]any{
				"document_id": docs[i].ID,
				"text":        docs[i].Text,
				"position":    s.inserted + i,
			},
		}
	}
	if err := s.send(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
		return err
	}
	s.inserted += len(docs)
	return nil
}

type searchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload struct {
			DocumentID string `json:"document_id"`
			Text       string `json:"text"`
			Position   int    `json:"position"`
		} `json:"payload"`
	} `json:"result"`
}

// Search queries the collection; equal scores are ordered by insertion position.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp searchResponse
	if err := s.send(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Result, func(i, j int) bool {
		a, b := resp.Result[i], resp.Result[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Payload.Position < b.Payload.Position
	})
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{
			Document: domain.Document{ID: r.Payload.DocumentID, Text: r.Payload.Text},
			Score:    r.Score,
		})
	}
	return results, nil
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear(ctx context.Context) error {
	err := s.send(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if se, ok := err.(*statusError); ok && se.status == http.StatusNotFound {
		return nil
	}
	return err
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

type statusError struct {
	method, url string
	status      int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.status, http.StatusText(e.status))
}

func (s *Storage) send(ctx context.Context, method, url string, body any, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{method: method, url: url, status: resp.StatusCode}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var pointNamespace = uuid.MustParse("5b0c6f0e-4c55-4f8e-9a3a-0d5c2b7a9e11")

func pointID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}
