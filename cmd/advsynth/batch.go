package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/runs"
)

// readBatch decodes a {"labels": [...], "logits": [[...]]} document from path,
// or from stdin when path is "-".
func readBatch(path string, stdin io.Reader) (pipeline.Batch, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return pipeline.Batch{}, fmt.Errorf("open batch: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req runs.CreateRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return pipeline.Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return req.Batch()
}
