package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
	"github.com/tmc/langchaingo/textsplitter"
)

const defaultK = 5

var markdownSeparators = []string{
	"\n# ", "\n## ", "\n### ", "\n#### ",
	"\n\n", "\n", " ", "",
}

type Config struct {
	Dir          string `envconfig:"DIR" default:"data/kb"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" split_words:"true" default:"800" validate:"gt=0"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" split_words:"true" default:"100" validate:"gte=0,ltfield=ChunkSize"`
}

type chunkDocument struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

var _ contractx.KnowledgeRetriever = (*Index)(nil)

// Index is an in-memory BM25 index over chunked knowledge base files.
type Index struct {
	mu       sync.RWMutex
	index    bleve.Index
	splitter textsplitter.TextSplitter
	chunks   int
}

func NewIndex(cfg Config) (*Index, error) {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 800
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create knowledge index: %w", err)
	}

	return &Index{
		index: idx,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(markdownSeparators),
		),
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	chunkMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = en.AnalyzerName
	contentField.Store = true

	sourceField := bleve.NewKeywordFieldMapping()
	sourceField.Store = true

	chunkMapping.AddFieldMappingsAt("content", contentField)
	chunkMapping.AddFieldMappingsAt("source", sourceField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = chunkMapping
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	return indexMapping
}

// AddDocument splits content into chunks and indexes each one under source.
func (ix *Index) AddDocument(ctx context.Context, source, content string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, nil
	}

	parts, err := ix.splitter.SplitText(content)
	if err != nil {
		return 0, fmt.Errorf("split %s: %w", source, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	batch := ix.index.NewBatch()
	added := 0
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if strings.TrimSpace(part) == "" {
			continue
		}
		id := fmt.Sprintf("%s#%d", source, i)
		if err := batch.Index(id, chunkDocument{Content: part, Source: source}); err != nil {
			return 0, fmt.Errorf("index chunk %s: %w", id, err)
		}
		added++
	}
	if err := ix.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("apply batch for %s: %w", source, err)
	}
	ix.chunks += added
	return added, nil
}

// LoadDir indexes every .md and .txt file under dir. Sources are recorded
// relative to dir.
func (ix *Index) LoadDir(ctx context.Context, dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		source, err := filepath.Rel(dir, path)
		if err != nil {
			source = filepath.Base(path)
		}

		n, err := ix.AddDocument(ctx, filepath.ToSlash(source), string(raw))
		if err != nil {
			return err
		}
		log.Debug().Str("source", source).Int("chunks", n).Msg("knowledge_file_indexed")
		total += n
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("load knowledge dir %s: %w", dir, err)
	}
	return total, nil
}

// Retrieve returns up to k chunks in descending relevance.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]contractx.Document, error) {
	if k <= 0 {
		k = defaultK
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.chunks == 0 {
		return nil, fmt.Errorf("%w: knowledge base is empty", contractx.ErrRetrieval)
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = k
	req.Fields = []string{"content", "source"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrRetrieval, err)
	}

	docs := make([]contractx.Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		content, _ := hit.Fields["content"].(string)
		source, _ := hit.Fields["source"].(string)
		if source == "" {
			source = "unknown"
		}
		docs = append(docs, contractx.Document{Content: content, Source: source})
	}
	return docs, nil
}

func (ix *Index) Chunks() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.chunks
}

func (ix *Index) Close() error {
	return ix.index.Close()
}
