package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Jeffail/gabs"
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/novonordisk-research/vcf-parser/models"
)

// BulkSink indexes every rendered JSON variant into one index. Each
// document carries the run id; re-indexing the same variant overwrites
// it in place since the document id is derived from the allele.
type BulkSink struct {
	RunId   uuid.UUID
	Indexer esutil.BulkIndexer

	failed atomic.Int64
}

func NewBulkSink(es *es7.Client, cfg *models.Config) (*BulkSink, error) {
	workers := cfg.Elasticsearch.Workers
	if workers <= 0 {
		workers = 1
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		Index:         cfg.Elasticsearch.Index,
		NumWorkers:    workers,
		FlushBytes:    cfg.Elasticsearch.FlushBytes,
		FlushInterval: 5 * time.Second,
		OnError: func(ctx context.Context, err error) {
			log.Printf("[%s] - Bulk indexing error : %v\n", time.Now().Format(time.RFC3339), err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating bulk indexer: %w", err)
	}

	return &BulkSink{RunId: uuid.New(), Indexer: bi}, nil
}

// DocumentId hashes the allele coordinates into a stable document id.
func DocumentId(chrom string, pos int64, ref, alt string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(chrom+":"+strconv.FormatInt(pos, 10)+":"+ref+":"+alt))
}

func (s *BulkSink) Write(chunk models.OutputChunk) error {
	if len(bytes.TrimSpace(chunk.Data)) == 0 {
		return nil
	}

	doc, err := gabs.ParseJSON(chunk.Data)
	if err != nil {
		return fmt.Errorf("bulk sink expects json output: %w", err)
	}
	if _, err := doc.Set(s.RunId.String(), "runId"); err != nil {
		return err
	}

	return s.Indexer.Add(context.Background(), esutil.BulkIndexerItem{
		// Action field configures the operation to perform (index, create, delete, update)
		Action:     "index",
		DocumentID: documentIdOf(doc),
		Body:       bytes.NewReader(doc.Bytes()),

		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			s.failed.Add(1)
			if err != nil {
				log.Printf("[%s] - Indexing %s failed : %v\n", time.Now().Format(time.RFC3339), item.DocumentID, err)
			} else {
				log.Printf("[%s] - Indexing %s failed : %s: %s\n", time.Now().Format(time.RFC3339), item.DocumentID, res.Error.Type, res.Error.Reason)
			}
		},
	})
}

// documentIdOf returns "" (server-assigned id) when a column selection
// dropped the coordinates.
func documentIdOf(doc *gabs.Container) string {
	chrom, okChrom := doc.S(models.ColumnChromosome).Data().(string)
	pos, okPos := doc.S(models.ColumnPosition).Data().(float64)
	ref, okRef := doc.S(models.ColumnReference).Data().(string)
	alt, okAlt := doc.S(models.ColumnAlternative).Data().(string)
	if !okChrom || !okPos || !okRef || !okAlt {
		return ""
	}
	return DocumentId(chrom, int64(pos), ref, alt)
}

// Close flushes outstanding documents and reports failures.
func (s *BulkSink) Close() error {
	if err := s.Indexer.Close(context.Background()); err != nil {
		return fmt.Errorf("closing bulk indexer: %w", err)
	}
	if n := s.failed.Load(); n > 0 {
		return fmt.Errorf("%d documents failed to index", n)
	}
	return nil
}

func (s *BulkSink) Stats() esutil.BulkIndexerStats {
	return s.Indexer.Stats()
}
