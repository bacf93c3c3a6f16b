package elasticsearch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novonordisk-research/vcf-parser/fixtures"
	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/utils"
)

type indexedDocument struct {
	Id   string
	Body map[string]interface{}
}

// fakeCluster answers the product check and _bulk requests, failing
// every document whose chromosome is "fail".
type fakeCluster struct {
	mu   sync.Mutex
	docs []indexedDocument
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if !strings.HasSuffix(r.URL.Path, "_bulk") {
		fmt.Fprint(w, `{"name":"fake","cluster_name":"fake","version":{"number":"7.17.7","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		return
	}

	var items []string
	failed := false
	sc := bufio.NewScanner(r.Body)
	for sc.Scan() {
		var action map[string]map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &action); err != nil || !sc.Scan() {
			http.Error(w, "bad bulk body", http.StatusBadRequest)
			return
		}
		var body map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &body); err != nil {
			http.Error(w, "bad document", http.StatusBadRequest)
			return
		}

		id, _ := action["index"]["_id"].(string)
		if body[models.ColumnChromosome] == "fail" {
			failed = true
			items = append(items, fmt.Sprintf(`{"index":{"_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}`, id))
			continue
		}

		f.mu.Lock()
		f.docs = append(f.docs, indexedDocument{Id: id, Body: body})
		f.mu.Unlock()
		items = append(items, fmt.Sprintf(`{"index":{"_id":%q,"status":201}}`, id))
	}

	fmt.Fprintf(w, `{"took":1,"errors":%t,"items":[%s]}`, failed, strings.Join(items, ","))
}

func newTestSink(t *testing.T) (*BulkSink, *fakeCluster, func()) {
	cluster := &fakeCluster{}
	server := httptest.NewServer(cluster)

	cfg := fixtures.InitConfig()
	cfg.Elasticsearch.Url = server.URL

	es, err := utils.CreateEsConnection(cfg)
	assert.Nil(t, err)

	sink, err := NewBulkSink(es, cfg)
	assert.Nil(t, err)
	return sink, cluster, server.Close
}

func TestDocumentId(t *testing.T) {
	t.Run("should be stable per allele", func(t *testing.T) {
		assert.Equal(t, DocumentId("1", 1000, "A", "T"), DocumentId("1", 1000, "A", "T"))
		assert.Len(t, DocumentId("1", 1000, "A", "T"), 16)
	})

	t.Run("should differ between alleles", func(t *testing.T) {
		assert.NotEqual(t, DocumentId("1", 1000, "A", "T"), DocumentId("1", 1000, "A", "G"))
		assert.NotEqual(t, DocumentId("1", 1000, "A", "T"), DocumentId("2", 1000, "A", "T"))
	})
}

func TestBulkSink(t *testing.T) {
	t.Run("should index every variant with its run id", func(t *testing.T) {
		sink, cluster, stop := newTestSink(t)
		defer stop()

		docs := []string{
			`{"chromosome":"1","position":1000,"reference":"A","alternative":"T","joined":[]}`,
			`{"chromosome":"2","position":3000,"reference":"C","alternative":"G","joined":[]}`,
		}
		assert.Nil(t, sink.Write(models.OutputChunk{Seq: 1, Data: []byte(docs[0] + "\n")}))
		assert.Nil(t, sink.Write(models.OutputChunk{Seq: 2, Data: []byte(docs[1] + "\n")}))
		assert.Nil(t, sink.Write(models.OutputChunk{Seq: 3}))
		assert.Nil(t, sink.Close())

		assert.Len(t, cluster.docs, 2)
		ids := map[string]bool{}
		for _, doc := range cluster.docs {
			ids[doc.Id] = true
			assert.Equal(t, sink.RunId.String(), doc.Body["runId"])
		}
		assert.True(t, ids[DocumentId("1", 1000, "A", "T")])
		assert.True(t, ids[DocumentId("2", 3000, "C", "G")])
		assert.Equal(t, uint64(2), sink.Stats().NumIndexed)
	})

	t.Run("should let the cluster assign ids without coordinates", func(t *testing.T) {
		sink, cluster, stop := newTestSink(t)
		defer stop()

		assert.Nil(t, sink.Write(models.OutputChunk{Data: []byte(`{"chromosome":"1","joined":[]}`)}))
		assert.Nil(t, sink.Close())

		assert.Len(t, cluster.docs, 1)
		assert.Equal(t, "", cluster.docs[0].Id)
	})

	t.Run("should reject non json output", func(t *testing.T) {
		sink, _, stop := newTestSink(t)
		defer stop()

		assert.Error(t, sink.Write(models.OutputChunk{Data: []byte("chromosome\tposition\n")}))
		assert.Nil(t, sink.Close())
	})

	t.Run("should report failed documents on close", func(t *testing.T) {
		sink, _, stop := newTestSink(t)
		defer stop()

		assert.Nil(t, sink.Write(models.OutputChunk{Data: []byte(`{"chromosome":"fail","position":1,"reference":"A","alternative":"T"}`)}))
		assert.ErrorContains(t, sink.Close(), "1 documents failed")
	})
}
