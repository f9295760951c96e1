package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// Gateway wraps go-elasticsearch with the write/read primitives the pipeline
// uses. It owns the index lifecycle; no other component issues schema calls.
//
// Storage failures never escape the Gateway: writes degrade to failure counts,
// reads degrade to empty results, and every failure leaves a log line.
type Gateway struct {
	es  *elasticsearch.Client
	log *slog.Logger
}

// New instantiates the Gateway. It does not touch the network; call Ping to
// verify connectivity.
func New(addr string, logger *slog.Logger) (*Gateway, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Gateway{es: es, log: logger}, nil
}

// Ping reports whether Elasticsearch is reachable. It never returns an error.
func (g *Gateway) Ping(ctx context.Context) bool {
	res, err := g.es.Ping(g.es.Ping.WithContext(ctx))
	if err != nil {
		g.log.Warn("ping elasticsearch", slog.Any("err", err))
		return false
	}
	defer res.Body.Close()

	if res.IsError() {
		g.log.Warn("elasticsearch ping failed", slog.String("status", res.Status()))
		return false
	}

	return true
}

// EnsureSchema creates each managed index that does not exist yet. Calling it
// twice leaves the same five indices in place. A failure to create one index
// is logged and does not stop the remaining creations.
func (g *Gateway) EnsureSchema(ctx context.Context) {
	for _, name := range IndexNames() {
		if err := g.ensureIndex(ctx, name); err != nil {
			g.log.Error("create index", slog.String("index", name), slog.Any("err", err))
			continue
		}
	}
}

func (g *Gateway) ensureIndex(ctx context.Context, name string) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{name}}
	res, err := existsReq.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		g.log.Info("index exists", slog.String("index", name))
		return nil
	}

	payload, err := json.Marshal(indexDefinitions[name])
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: name,
		Body:  bytes.NewReader(payload),
	}
	createRes, err := createReq.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		// A concurrent creation elsewhere still satisfies idempotence.
		if strings.Contains(string(body), "resource_already_exists_exception") {
			g.log.Info("index exists", slog.String("index", name))
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}

	g.log.Info("index created", slog.String("index", name))
	return nil
}

// BulkWrite indexes docs into index in one batch and returns per-document
// success/failure counts. success+failed always equals len(docs). An empty
// batch performs no network call. A transport-level failure reports the whole
// batch as failed instead of returning an error.
func (g *Gateway) BulkWrite(ctx context.Context, index string, docs []any) (success, failed int) {
	if len(docs) == 0 {
		return 0, 0
	}

	var buf bytes.Buffer
	attempted := 0
	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			g.log.Warn("marshal document", slog.String("index", index), slog.Any("err", err))
			failed++
			continue
		}
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, index, uuid.NewString())
		buf.WriteString(meta)
		buf.WriteByte('\n')
		buf.Write(payload)
		buf.WriteByte('\n')
		attempted++
	}

	if attempted == 0 {
		return 0, failed
	}

	req := esapi.BulkRequest{
		Index: index,
		Body:  bytes.NewReader(buf.Bytes()),
	}

	res, err := req.Do(ctx, g.es)
	if err != nil {
		g.log.Error("bulk write", slog.String("index", index), slog.Any("err", err))
		return 0, failed + attempted
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		g.log.Error("bulk write failed",
			slog.String("index", index),
			slog.String("body", strings.TrimSpace(string(body))),
		)
		return 0, failed + attempted
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		g.log.Error("decode bulk response", slog.String("index", index), slog.Any("err", err))
		return 0, failed + attempted
	}

	for _, item := range parsed.Items {
		ok := false
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				ok = true
			}
		}
		if ok {
			success++
		} else {
			failed++
		}
	}

	// Items missing from the response are unaccounted writes; count them as
	// failed so the totals still add up.
	if accounted := success + failed - (len(docs) - attempted); accounted < attempted {
		failed += attempted - accounted
	}

	g.log.Info("bulk write",
		slog.String("index", index),
		slog.Int("success", success),
		slog.Int("failed", failed),
	)
	return success, failed
}

// Search runs query against index with at most size hits and returns the hit
// sources. Any failure degrades to an empty result; callers cannot tell a
// failed read from an empty one.
func (g *Gateway) Search(ctx context.Context, index string, query map[string]any, size int) []map[string]any {
	body := make(map[string]any, len(query)+1)
	for k, v := range query {
		body[k] = v
	}
	body["size"] = size

	payload, err := json.Marshal(body)
	if err != nil {
		g.log.Error("marshal search body", slog.String("index", index), slog.Any("err", err))
		return nil
	}

	res, err := g.es.Search(
		g.es.Search.WithContext(ctx),
		g.es.Search.WithIndex(index),
		g.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		g.log.Error("search", slog.String("index", index), slog.Any("err", err))
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		g.log.Error("search failed",
			slog.String("index", index),
			slog.String("body", strings.TrimSpace(string(data))),
		)
		return nil
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		g.log.Error("decode search response", slog.String("index", index), slog.Any("err", err))
		return nil
	}

	items := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return items
}
