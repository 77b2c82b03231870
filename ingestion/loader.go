// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/copilot/core"
)

// Metadata keys set by the loader.
const (
	MetadataSource = "source"
	MetadataLine   = "line"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 * 1024 * 1024

// jsonRecord is one line of a .jsonl input file.
type jsonRecord struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// LoadDocuments reads documents from the given files.
//
//   - .jsonl: one {"content": ..., "metadata": {...}} object per line
//   - .txt, .md: the whole file is one document
//
// Every document gets a "source" metadata entry naming its file unless the
// record sets one. Blank documents are skipped.
func LoadDocuments(paths ...string) ([]*core.Document, error) {
	var docs []*core.Document
	for _, path := range paths {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func loadFile(path string) ([]*core.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jsonl", ".txt", ".md":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if ext == ".jsonl" {
		return ReadJSONL(f, path)
	}
	return readText(f, path)
}

// ReadJSONL parses JSON Lines from r. source names the input in metadata and errors.
func ReadJSONL(r io.Reader, source string) ([]*core.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []*core.Document
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec jsonRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		if strings.TrimSpace(rec.Content) == "" {
			continue
		}

		metadata := make(map[string]string, len(rec.Metadata)+2)
		for k, v := range rec.Metadata {
			if s, ok := v.(string); ok {
				metadata[k] = s
			} else {
				metadata[k] = fmt.Sprint(v)
			}
		}
		if _, ok := metadata[MetadataSource]; !ok {
			metadata[MetadataSource] = source
		}
		metadata[MetadataLine] = fmt.Sprint(line)

		docs = append(docs, &core.Document{Content: rec.Content, Metadata: metadata})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return docs, nil
}

func readText(r io.Reader, source string) ([]*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []*core.Document{{
		Content:  string(data),
		Metadata: map[string]string{MetadataSource: source},
	}}, nil
}
