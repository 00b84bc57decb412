package reader

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PDFReader extracts text from PDF files, producing one Document per page.
type PDFReader struct {
	// Chunk enables splitting each page into ChunkSize-byte documents.
	Chunk     bool
	ChunkSize int
	Logger    *zerolog.Logger
}

func (r *PDFReader) logger() zerolog.Logger {
	if r.Logger != nil {
		return *r.Logger
	}
	return log.Logger
}

// Read extracts text from the PDF at path.
func (r *PDFReader) Read(path string) ([]Document, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.extract(name, doc)
}

// ReadBytes extracts text from an in-memory PDF, e.g. one fetched over HTTP.
func (r *PDFReader) ReadBytes(name string, data []byte) ([]Document, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}
	return r.extract(name, doc)
}

func (r *PDFReader) extract(name string, doc *pdf.Reader) ([]Document, error) {
	logger := r.logger()
	pages := doc.NumPage()
	out := make([]Document, 0, pages)

	for i := 1; i <= pages; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single bad page should not sink the whole file.
			logger.Warn().Str("name", name).Int("page", i).Err(err).Msg("Failed to extract page text")
			continue
		}
		out = append(out, Document{
			Name:    name,
			ID:      fmt.Sprintf("%s_%d", name, i),
			Content: text,
			Meta:    map[string]any{"page": i},
		})
	}

	if r.Chunk {
		return chunkDocuments(out, r.ChunkSize), nil
	}
	return out, nil
}
