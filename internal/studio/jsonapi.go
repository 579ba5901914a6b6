package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resource is a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// Relationship holds resource linkage; Data is a single identifier or a list.
type Relationship struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// Identifier is a JSON:API resource identifier.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Identifiers decodes the relationship linkage, accepting a single object or a list.
func (r Relationship) Identifiers() []Identifier {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var ids []Identifier
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil
		}
		return ids
	}
	var id Identifier
	if err := json.Unmarshal(data, &id); err != nil {
		return nil
	}
	return []Identifier{id}
}

// Document is a JSON:API top-level response.
type Document struct {
	Data     json.RawMessage `json:"data"`
	Included []Resource      `json:"included,omitempty"`
	Meta     map[string]any  `json:"meta,omitempty"`
}

// Payload is a JSON:API request body.
type Payload struct {
	Data Resource `json:"data"`
}

// NewPayload builds a request body for a resource of the given type.
func NewPayload(resourceType string, attributes map[string]any) Payload {
	return Payload{Data: Resource{Type: resourceType, Attributes: attributes}}
}

// DecodeOne decodes a single-resource document.
func DecodeOne(raw json.RawMessage) (Resource, []Resource, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Resource{}, nil, fmt.Errorf("failed to decode response document: %w", err)
	}
	var res Resource
	if err := json.Unmarshal(doc.Data, &res); err != nil {
		return Resource{}, nil, fmt.Errorf("failed to decode resource: %w", err)
	}
	return res, doc.Included, nil
}

// DecodeMany decodes a collection document.
func DecodeMany(raw json.RawMessage) ([]Resource, []Resource, map[string]any, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode response document: %w", err)
	}
	resources := []Resource{}
	if len(bytes.TrimSpace(doc.Data)) > 0 && !bytes.Equal(bytes.TrimSpace(doc.Data), []byte("null")) {
		if err := json.Unmarshal(doc.Data, &resources); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode resource collection: %w", err)
		}
	}
	return resources, doc.Included, doc.Meta, nil
}
