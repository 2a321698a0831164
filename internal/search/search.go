// Package search keeps a full text index of places.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/localnerve/voternet/internal/models"
)

// PageSize is the number of hits per result page.
const PageSize = 20

const codeAnalyzer = "code"

type placeDoc struct {
	Key  string `json:"key"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Hit is one matching place.
type Hit struct {
	ID    uint    `json:"id"`
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Result is one page of hits.
type Result struct {
	Total uint64 `json:"total"`
	Page  int    `json:"page"`
	Hits  []Hit  `json:"hits"`
}

// Index is a bleve index of places. Names are matched as text; codes, which look like
// PB0119, are matched exactly and case-insensitively.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it when missing. An empty path keeps the
// index in memory.
func Open(path string) (*Index, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	if path == "" {
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func newMapping() (mapping.IndexMapping, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(codeAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("code analyzer: %w", err)
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = codeAnalyzer

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("code", exact)
	doc.AddFieldMappingsAt("type", exact)
	doc.AddFieldMappingsAt("key", exact)
	m.DefaultMapping = doc
	return m, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// IndexPlaces adds or replaces places.
func (ix *Index) IndexPlaces(ctx context.Context, places ...models.Place) error {
	b := ix.idx.NewBatch()
	for _, p := range places {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := placeDoc{Key: p.Key, Code: p.Code, Name: p.Name, Type: string(p.Type)}
		if err := b.Index(docID(p.ID), doc); err != nil {
			return fmt.Errorf("index %s: %w", p.Key, err)
		}
	}
	return ix.idx.Batch(b)
}

// DeletePlaces removes places by id.
func (ix *Index) DeletePlaces(_ context.Context, ids ...uint) error {
	b := ix.idx.NewBatch()
	for _, id := range ids {
		b.Delete(docID(id))
	}
	return ix.idx.Batch(b)
}

// Reindex makes the index hold exactly places.
func (ix *Index) Reindex(ctx context.Context, places []models.Place) error {
	keep := make(map[string]bool, len(places))
	for _, p := range places {
		keep[docID(p.ID)] = true
	}

	n, err := ix.idx.DocCount()
	if err != nil {
		return err
	}
	if n > 0 {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
		res, err := ix.idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("list indexed places: %w", err)
		}
		b := ix.idx.NewBatch()
		for _, h := range res.Hits {
			if !keep[h.ID] {
				b.Delete(h.ID)
			}
		}
		if err := ix.idx.Batch(b); err != nil {
			return err
		}
	}

	const chunk = 500
	for start := 0; start < len(places); start += chunk {
		if err := ix.IndexPlaces(ctx, places[start:min(start+chunk, len(places))]...); err != nil {
			return err
		}
	}
	return nil
}

// Search finds places matching every word of q. Pages count from zero.
func (ix *Index) Search(ctx context.Context, q string, page int) (Result, error) {
	words := strings.Fields(q)
	if len(words) == 0 {
		return Result{Page: page}, nil
	}
	if page < 0 {
		page = 0
	}

	clauses := make([]query.Query, 0, len(words))
	for _, w := range words {
		name := bleve.NewMatchQuery(w)
		name.SetField("name")
		code := bleve.NewTermQuery(strings.ToLower(w))
		code.SetField("code")
		code.SetBoost(2)
		clauses = append(clauses, bleve.NewDisjunctionQuery(name, code))
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(clauses...), PageSize, page*PageSize, false)
	req.Fields = []string{"key", "name", "type"}
	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("search %q: %w", q, err)
	}

	out := Result{Total: res.Total, Page: page, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hit := Hit{ID: uint(id), Score: h.Score}
		hit.Key, _ = h.Fields["key"].(string)
		hit.Name, _ = h.Fields["name"].(string)
		hit.Type, _ = h.Fields["type"].(string)
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// Count is the number of indexed places.
func (ix *Index) Count() (uint64, error) {
	return ix.idx.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.idx.Close()
}
