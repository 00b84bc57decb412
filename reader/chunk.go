package reader

import (
	"fmt"
	"strings"
)

const defaultChunkSize = 3000

// chunkDocuments splits each document into pieces of at most size bytes,
// breaking on whitespace where possible. Documents already within the limit
// pass through unchanged.
func chunkDocuments(docs []Document, size int) []Document {
	if size <= 0 {
		size = defaultChunkSize
	}

	var out []Document
	for _, doc := range docs {
		pieces := splitText(doc.Content, size)
		if len(pieces) <= 1 {
			out = append(out, doc)
			continue
		}
		for i, piece := range pieces {
			meta := make(map[string]any, len(doc.Meta)+2)
			for k, v := range doc.Meta {
				meta[k] = v
			}
			meta["chunk"] = i + 1
			meta["chunk_size"] = len(piece)
			out = append(out, Document{
				Name:    doc.Name,
				ID:      fmt.Sprintf("%s_chunk_%d", doc.ID, i+1),
				Content: piece,
				Meta:    meta,
			})
		}
	}
	return out
}

func splitText(text string, size int) []string {
	var pieces []string
	for len(text) > size {
		cut := size
		if i := strings.LastIndexAny(text[:size], " \t\n"); i > 0 {
			cut = i
		}
		pieces = append(pieces, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}
