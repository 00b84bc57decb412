package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/reader"
)

// RegisterBuiltins registers the built-in tools. readerCfg controls chunking
// for document tools.
func RegisterBuiltins(r *Registry, pdfReader *reader.PDFReader) {
	r.Register(llm.ToolSpec{
		Name:        "current_time",
		Description: "Returns the current date and time in RFC 3339 format.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		return map[string]any{"time": time.Now().Format(time.RFC3339)}, nil
	})

	r.Register(llm.ToolSpec{
		Name:        "read_pdf",
		Description: "Extracts the text of a local PDF file, one result per page.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Filesystem path of the PDF to read.",
				},
			},
			"required": []string{"path"},
		},
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var payload struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(args, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
		}
		if payload.Path == "" {
			return nil, fmt.Errorf("path cannot be empty")
		}
		return pdfReader.Read(payload.Path)
	})
}
