package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

// maxSearchHits is the index.max_result_window default.
const maxSearchHits = 10000

// ElasticsearchStore keeps the collection in a single-shard index so that
// "_doc" order follows insertion order.
type ElasticsearchStore struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticsearchStore(es *elasticsearch.Client, collection string) (*ElasticsearchStore, error) {
	if err := validIdentifier(collection); err != nil {
		return nil, err
	}
	return &ElasticsearchStore{es: es, index: strings.ToLower(collection)}, nil
}

// EnsureIndex creates the index when it does not exist.
func (s *ElasticsearchStore) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := `{"settings":{"number_of_shards":1}}`
	res, err = esapi.IndicesCreateRequest{Index: s.index, Body: strings.NewReader(body)}.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}
	return nil
}

func (s *ElasticsearchStore) Get(ctx context.Context, id string) (models.Record, error) {
	res, err := esapi.GetRequest{Index: s.index, DocumentID: id}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s: %s", id, res.String())
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeRecord([]byte(gjson.GetBytes(buf.Bytes(), "_source").Raw))
}

func (s *ElasticsearchStore) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	rec = prepareCreate(rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	res, err := esapi.CreateRequest{
		Index:      s.index,
		DocumentID: rec.ID(),
		Body:       bytes.NewReader(doc),
		Refresh:    "wait_for",
	}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.ID(), err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return nil, ErrConflict
	}
	if res.IsError() {
		return nil, fmt.Errorf("create %s: %s", rec.ID(), res.String())
	}
	return rec, nil
}

func (s *ElasticsearchStore) Replace(ctx context.Context, id string, rec models.Record) (models.Record, error) {
	res, err := esapi.ExistsRequest{Index: s.index, DocumentID: id}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("exists %s: %w", id, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	rec = prepareReplace(id, rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	res, err = esapi.IndexRequest{
		Index:      s.index,
		DocumentID: id,
		Body:       bytes.NewReader(doc),
		Refresh:    "wait_for",
	}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("replace %s: %s", id, res.String())
	}
	return rec, nil
}

func (s *ElasticsearchStore) Delete(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{Index: s.index, DocumentID: id, Refresh: "wait_for"}.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("delete %s: %s", id, res.String())
	}
	return nil
}

func (s *ElasticsearchStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	return s.Query(ctx, querylang.PassThrough())
}

func (s *ElasticsearchStore) Query(ctx context.Context, q querylang.Query) ([]models.Record, error) {
	clause, err := translateES(q.Where)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]interface{}{
		"query": clause,
		"sort":  []string{"_doc"},
		"size":  maxSearchHits,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return []models.Record{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeHits(buf.Bytes())
}

func decodeHits(body []byte) ([]models.Record, error) {
	out := []models.Record{}
	var decodeErr error
	gjson.GetBytes(body, "hits.hits").ForEach(func(_, hit gjson.Result) bool {
		rec, err := decodeRecord([]byte(hit.Get("_source").Raw))
		if err != nil {
			decodeErr = err
			return false
		}
		if rec.ID() == "" {
			rec[models.IDField] = hit.Get("_id").String()
		}
		out = append(out, rec)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func (s *ElasticsearchStore) Clear(ctx context.Context) error {
	body := `{"query":{"match_all":{}}}`
	refresh := true
	res, err := esapi.DeleteByQueryRequest{
		Index:   []string{s.index},
		Body:    strings.NewReader(body),
		Refresh: &refresh,
	}.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("clear %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("clear %s: %s", s.index, res.String())
	}
	return nil
}

func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

func (s *ElasticsearchStore) Close() error { return nil }
