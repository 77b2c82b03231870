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

package storage

import (
	"testing"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "minimal document",
			doc: &core.Document{
				Id:      core.ID(1),
				Content: "Atlas",
			},
		},
		{
			name: "document with everything",
			doc: &core.Document{
				Id:      core.IDFromContent("Marie Dupont manages the Atlas project"),
				Content: "Marie Dupont manages the Atlas project",
				Metadata: map[string]string{
					"source":   "projects.jsonl",
					"contract": "internal",
				},
				Vector:     []float32{0.1, -0.2, 0.3, 0.4},
				InsertedAt: now,
			},
		},
		{
			name: "unicode content",
			doc: &core.Document{
				Id:      core.ID(7),
				Content: "Équipe de Grenoble — disponibilité 40 %",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)

			assert.Equal(t, tt.doc.Id, decoded.Id)
			assert.Equal(t, tt.doc.Content, decoded.Content)
			assert.Equal(t, tt.doc.Metadata, decoded.Metadata)
			assert.Equal(t, tt.doc.Vector, decoded.Vector)
			assert.True(t, tt.doc.InsertedAt.Equal(decoded.InsertedAt))
		})
	}
}

func TestMarshalDocument_Deterministic(t *testing.T) {
	doc := &core.Document{
		Id:       core.ID(3),
		Content:  "capacity",
		Metadata: map[string]string{"b": "2", "a": "1", "c": "3"},
	}

	first := MarshalDocument(doc)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MarshalDocument(doc))
	}
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	valid := MarshalDocument(&core.Document{
		Id:      core.ID(9),
		Content: "some content long enough to truncate",
		Vector:  []float32{0.5, 0.5},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated content", valid[:5]},
		{"truncated vector", valid[:len(valid)-6]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
