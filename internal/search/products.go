package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ProductIndex resolves product titles from the per-store search index.
// Each store owns one index named "<storeID>_products"; documents carry at
// least {id, title}.
type ProductIndex struct {
	client *elasticsearch.Client
}

// NewProductIndex connects to the search cluster.
func NewProductIndex(addresses []string) (*ProductIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return &ProductIndex{client: client}, nil
}

// NewProductIndexWithTransport is the test seam: it wires a custom HTTP
// transport instead of a live cluster.
func NewProductIndexWithTransport(transport http.RoundTripper) (*ProductIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Transport: transport})
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return &ProductIndex{client: client}, nil
}

type mgetResponse struct {
	Docs []struct {
		ID     string `json:"_id"`
		Found  bool   `json:"found"`
		Source struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"_source"`
	} `json:"docs"`
}

// ProductTitles returns the titles of the given products via a multi-get on
// the store's index. Ids without a document are absent from the result;
// only transport and cluster errors fail the lookup.
func (p *ProductIndex) ProductTitles(ctx context.Context, storeID int64, productIDs []int64) (map[int64]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	body, err := json.Marshal(map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("marshal mget body: %w", err)
	}

	req := esapi.MgetRequest{
		Index:          fmt.Sprintf("%d_products", storeID),
		Body:           bytes.NewReader(body),
		SourceIncludes: []string{"id", "title"},
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("mget product titles: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("mget product titles: %s", res.Status())
	}

	var parsed mgetResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode mget response: %w", err)
	}

	titles := make(map[int64]string, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		if !doc.Found || doc.Source.Title == "" {
			continue
		}
		id := doc.Source.ID
		if id == 0 {
			// Some documents only carry the id in _id.
			parsedID, err := strconv.ParseInt(doc.ID, 10, 64)
			if err != nil {
				continue
			}
			id = parsedID
		}
		titles[id] = doc.Source.Title
	}

	return titles, nil
}
