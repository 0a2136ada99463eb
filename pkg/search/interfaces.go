package search

import (
	"context"
	"sort"
	"strings"

	"github.com/glorpus-work/cmipget/pkg/model"
)

// Provider is the raw search collaborator the reconciliation core consumes:
// a facet query in, loosely-structured per-node records out.
type Provider interface {
	Search(ctx context.Context, query Query) ([]model.Record, error)
}

// Query maps facet names to accepted values, e.g.
// {"variable": ["tos"], "experiment_id": ["historical", "ssp585"]}.
type Query map[string][]string

// Canonical renders the query as a deterministic string, used as the cache
// key and for logging.
func (q Query) Canonical() string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := make([]string, len(q[k]))
		copy(values, q[k])
		sort.Strings(values)
		parts = append(parts, k+"="+strings.Join(values, ","))
	}
	return strings.Join(parts, "&")
}
