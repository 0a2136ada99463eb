package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
)

func solrPage(numFound int, docs ...map[string]any) string {
	body := map[string]any{
		"response": map[string]any{
			"numFound": numFound,
			"docs":     docs,
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func testDoc(filename, dataNode string) map[string]any {
	return map[string]any{
		"source_id":     []string{"AWI-CM-1-1-MR"},
		"experiment_id": []string{"historical"},
		"member_id":     []string{"r1i1p1f1"},
		"variable":      []string{"tos"},
		"table_id":      []string{"Oday"},
		"grid_label":    []string{"gn"},
		"data_node":     dataNode,
		"dataset_id":    "CMIP6.CMIP.AWI.historical.Oday.tos.gn.v20181218|" + dataNode,
		"title":         filename,
		"url": []string{
			"http://" + dataNode + "/thredds/" + filename + "|application/netcdf|HTTPServer",
			"http://" + dataNode + "/opendap/" + filename + "|application/opendap|OPENDAP",
		},
		"size":          1234,
		"checksum_type": []string{"SHA256"},
		"checksum":      []string{"abc123"},
	}
}

func TestSearchSingleNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "File", r.URL.Query().Get("type"))
		assert.Equal(t, "tos", r.URL.Query().Get("variable"))
		_, _ = w.Write([]byte(solrPage(1, testDoc("tos_Oday_AWI-CM-1-1-MR_historical_r1i1p1f1_gn_18500101-18501231.nc", "esgf.node.a"))))
	}))
	defer server.Close()

	c := NewClient([]string{server.URL}, time.Second, 1, nil)
	records, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "AWI-CM-1-1-MR", rec.SourceID)
	assert.Equal(t, "Oday", rec.TableID)
	assert.Equal(t, "v20181218", rec.Version)
	assert.Equal(t, "esgf.node.a", rec.DataNode)
	assert.Equal(t, "http://esgf.node.a/thredds/tos_Oday_AWI-CM-1-1-MR_historical_r1i1p1f1_gn_18500101-18501231.nc", rec.URL)
	assert.Equal(t, int64(1234), rec.Size)
	assert.Equal(t, "SHA256", rec.Checksum.Algorithm)
}

func TestSearchPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		name := fmt.Sprintf("tos_%d.nc", offset)
		_, _ = w.Write([]byte(solrPage(3, testDoc(name, "esgf.node.a"))))
	}))
	defer server.Close()

	c := NewClient([]string{server.URL}, time.Second, 1, nil)
	c.pageSize = 1
	records, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "tos_0.nc", records[0].Filename)
	assert.Equal(t, "tos_2.nc", records[2].Filename)
}

func TestSearchToleratesFailingNodes(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(solrPage(1, testDoc("tos.nc", "esgf.node.a"))))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c := NewClient([]string{bad.URL, good.URL}, time.Second, 2, nil)
	records, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSearchAllNodesDown(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c := NewClient([]string{bad.URL, "http://127.0.0.1:1/search"}, time.Second, 2, nil)
	_, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	assert.ErrorIs(t, err, pkgerrors.ErrSearchUnavailable)
	assert.Contains(t, err.Error(), bad.URL)
}

func TestSearchConcurrentNodesKeepOrder(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(solrPage(1, testDoc("tos_a.nc", "esgf.node.a"))))
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(solrPage(1, testDoc("tos_b.nc", "esgf.node.b"))))
	}))
	defer fast.Close()

	c := NewClient([]string{slow.URL, fast.URL}, time.Second, 2, nil)
	records, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Results follow the configured node order, not arrival order.
	assert.Equal(t, "tos_a.nc", records[0].Filename)
	assert.Equal(t, "tos_b.nc", records[1].Filename)
}

func TestSearchUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(solrPage(1, testDoc("tos.nc", "esgf.node.a"))))
	}))
	defer server.Close()

	cache := NewCache(t.TempDir(), time.Hour)
	c := NewClient([]string{server.URL}, time.Second, 1, cache)

	first, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)
	second, err := c.Search(context.Background(), Query{"variable": {"tos"}})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second search must be served from cache")

	// A different query is a cache miss.
	_, err = c.Search(context.Background(), Query{"variable": {"tas"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestQueryCanonical(t *testing.T) {
	q := Query{
		"variable":      {"tos", "tas"},
		"experiment_id": {"historical"},
	}
	assert.Equal(t, "experiment_id=historical&variable=tas,tos", q.Canonical())
	assert.Equal(t, "", Query{}.Canonical())
}

func TestSolrDocStringFields(t *testing.T) {
	doc := solrDoc{
		"source_id": json.RawMessage(`"AWI-CM-1-1-MR"`),
		"title":     json.RawMessage(`["tos.nc"]`),
		"url":       json.RawMessage(`"http://esgf.node.a/tos.nc"`),
	}
	rec := doc.record()
	assert.Equal(t, "AWI-CM-1-1-MR", rec.SourceID)
	assert.Equal(t, "tos.nc", rec.Filename)
	assert.Equal(t, "http://esgf.node.a/tos.nc", rec.URL)
	assert.Zero(t, rec.Size)
}
