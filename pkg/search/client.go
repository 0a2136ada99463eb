// Package search implements the raw search provider: it fans a facet query
// out to every configured index node, flattens the solr-style responses into
// serializable records, and optionally caches results on disk.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/glorpus-work/cmipget/internal/logger"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/model"
)

// DefaultPageSize is the per-request batch size used when paging through a
// node's results.
const DefaultPageSize = 500

// Client queries a set of index nodes. Nodes are independent and frequently
// flaky, so per-node errors are collected rather than aborting the search;
// only a search where no node answered fails.
type Client struct {
	http        *retryablehttp.Client
	nodes       []string
	pageSize    int
	concurrency int
	cache       *Cache
}

// NewClient creates a search client for the given index node base URLs.
// concurrency bounds how many nodes are queried in parallel; <=0 queries one
// at a time. cache may be nil to disable result caching.
func NewClient(nodes []string, timeout time.Duration, concurrency int, cache *Cache) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Client{
		http:        rc,
		nodes:       nodes,
		pageSize:    DefaultPageSize,
		concurrency: concurrency,
		cache:       cache,
	}
}

// Search queries every configured index node and returns the concatenated
// records. Returns ErrSearchUnavailable when no node could be reached.
func (c *Client) Search(ctx context.Context, query Query) ([]model.Record, error) {
	if c.cache != nil {
		if records, ok := c.cache.Get(query); ok {
			logger.Debugf("search cache hit for %s (%d records)", query.Canonical(), len(records))
			return records, nil
		}
	}

	type nodeResult struct {
		records []model.Record
		err     error
	}
	results := make([]nodeResult, len(c.nodes))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, node := range c.nodes {
		wg.Add(1)
		go func(i int, node string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			logger.Debugf("searching %s with %s", node, query.Canonical())
			nodeRecords, err := c.searchNode(ctx, node, query)
			if err != nil {
				logger.Debugf("unable to search %s: %v", node, err)
				results[i] = nodeResult{err: fmt.Errorf("%s: %w", node, err)}
				return
			}
			logger.Debugf("got %d records from %s", len(nodeRecords), node)
			results[i] = nodeResult{records: nodeRecords}
		}(i, node)
	}
	wg.Wait()

	var records []model.Record
	var nodeErrs []error
	for _, res := range results {
		if res.err != nil {
			nodeErrs = append(nodeErrs, res.err)
			continue
		}
		records = append(records, res.records...)
	}
	if len(nodeErrs) == len(c.nodes) {
		msgs := make([]string, len(nodeErrs))
		for i, err := range nodeErrs {
			msgs[i] = "- " + err.Error()
		}
		return nil, fmt.Errorf("%w:\n%s", pkgerrors.ErrSearchUnavailable, strings.Join(msgs, "\n"))
	}

	if c.cache != nil {
		if err := c.cache.Put(query, records); err != nil {
			logger.Warnf("could not cache search results: %v", err)
		}
	}
	return records, nil
}

// searchNode pages through one node's file results.
func (c *Client) searchNode(ctx context.Context, node string, query Query) ([]model.Record, error) {
	var records []model.Record
	offset := 0
	for {
		page, numFound, err := c.fetchPage(ctx, node, query, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		offset += c.pageSize
		if len(page) == 0 || offset >= numFound {
			return records, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, node string, query Query, offset int) ([]model.Record, int, error) {
	params := url.Values{}
	params.Set("type", "File")
	params.Set("format", "application/solr+json")
	params.Set("limit", fmt.Sprintf("%d", c.pageSize))
	params.Set("offset", fmt.Sprintf("%d", offset))
	for facet, values := range query {
		params.Set(facet, strings.Join(values, ","))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, node+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	var parsed solrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to parse search response")
	}

	records := make([]model.Record, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		records = append(records, doc.record())
	}
	return records, parsed.Response.NumFound, nil
}

type solrResponse struct {
	Response struct {
		NumFound int       `json:"numFound"`
		Docs     []solrDoc `json:"docs"`
	} `json:"response"`
}

// solrDoc is one loosely-structured per-node hit. Most fields arrive as
// single-element arrays; some nodes send plain strings.
type solrDoc map[string]json.RawMessage

// record strips a doc down to a serializable Record immediately on ingestion.
func (d solrDoc) record() model.Record {
	datasetID := d.first("dataset_id")
	return model.Record{
		SourceID:     d.first("source_id"),
		ExperimentID: d.first("experiment_id"),
		MemberID:     d.first("member_id"),
		Variable:     d.first("variable"),
		TableID:      d.first("table_id"),
		GridLabel:    d.first("grid_label"),
		DataNode:     d.first("data_node"),
		DatasetID:    datasetID,
		Version:      model.VersionFromDatasetID(datasetID),
		Filename:     d.first("title"),
		URL:          d.downloadURL(),
		Size:         d.size(),
		Checksum: model.Checksum{
			Algorithm: d.first("checksum_type"),
			Digest:    d.first("checksum"),
		},
	}
}

// first returns a field's value, flattening single-element arrays.
func (d solrDoc) first(field string) string {
	raw, ok := d[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func (d solrDoc) size() int64 {
	raw, ok := d["size"]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

// downloadURL picks the HTTPServer entry from the "url" field, whose entries
// have the form "<url>|<mime>|<service>".
func (d solrDoc) downloadURL() string {
	raw, ok := d["url"]
	if !ok {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		list = []string{s}
	}
	for _, entry := range list {
		parts := strings.Split(entry, "|")
		if len(parts) == 1 {
			return parts[0]
		}
		if parts[len(parts)-1] == "HTTPServer" {
			return parts[0]
		}
	}
	return ""
}
