package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"studiomcp/internal/scenario"
	"studiomcp/internal/studio"
)

// Requester performs one upstream call. *studio.Client implements it.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Project is a Cucumber Studio project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Scenario is a scenario with its definition parsed into steps.
type Scenario struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	FolderID    string          `json:"folder_id,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	Steps       []scenario.Step `json:"steps"`
	Tags        []Tag           `json:"tags,omitempty"`
}

// Tag is a key/value label attached to a scenario.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Folder groups scenarios inside a project.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// TagInput is a tag to create or update.
type TagInput struct {
	Key   string
	Value string
}

// CreateScenarioInput describes a new scenario.
type CreateScenarioInput struct {
	Name        string
	Description string
	FolderID    string
	Steps       []scenario.Step
	Tags        []TagInput
}

// UpdateScenarioInput describes a scenario change. Nil fields are left
// untouched; a nil Steps keeps the current definition, an empty one clears it.
type UpdateScenarioInput struct {
	Name        *string
	Description *string
	FolderID    *string
	Steps       []scenario.Step
	Tags        []TagInput
}

// TagFailure records one tag that could not be added.
type TagFailure struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Error string `json:"error"`
}

// ScenarioWriteResult is a created or updated scenario, re-read from the
// upstream, together with the tags that could not be added to it.
type ScenarioWriteResult struct {
	Scenario
	FailedTags []TagFailure `json:"failed_tags,omitempty"`
}

// TagBatchResult is the outcome of adding several tags.
type TagBatchResult struct {
	Scenario Scenario     `json:"scenario"`
	Added    []Tag        `json:"added"`
	Failed   []TagFailure `json:"failed,omitempty"`
}

// attrString reads the first present attribute among keys as a string.
// Numbers are formatted without a fractional part when they are integral.
func attrString(attrs map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := attrs[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			if t == float64(int64(t)) {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			return t.String()
		case bool:
			return strconv.FormatBool(t)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func projectFromResource(r studio.Resource) Project {
	return Project{
		ID:          r.ID,
		Name:        attrString(r.Attributes, "name"),
		Description: attrString(r.Attributes, "description"),
		CreatedAt:   attrString(r.Attributes, "created_at", "created-at"),
		UpdatedAt:   attrString(r.Attributes, "updated_at", "updated-at"),
	}
}

func folderFromResource(r studio.Resource) Folder {
	return Folder{
		ID:       r.ID,
		Name:     attrString(r.Attributes, "name"),
		ParentID: attrString(r.Attributes, "parent_id", "parent-id"),
	}
}

func tagFromResource(r studio.Resource) Tag {
	return Tag{
		ID:    r.ID,
		Key:   attrString(r.Attributes, "key"),
		Value: attrString(r.Attributes, "value"),
	}
}

// scenarioFromResource normalizes the definition and attaches the tags
// that the resource links to among included.
func scenarioFromResource(r studio.Resource, included []studio.Resource) Scenario {
	definition := scenario.NormalizeDefinition(attrString(r.Attributes, "definition"))

	s := Scenario{
		ID:          r.ID,
		Name:        attrString(r.Attributes, "name"),
		Description: attrString(r.Attributes, "description"),
		FolderID:    attrString(r.Attributes, "folder_id", "folder-id"),
		Definition:  definition,
		Steps:       scenario.ParseSteps(definition),
	}

	rel, ok := r.Relationships["tags"]
	if !ok || len(included) == 0 {
		return s
	}

	byID := make(map[string]studio.Resource, len(included))
	for _, inc := range included {
		if inc.Type == "tags" {
			byID[inc.ID] = inc
		}
	}
	for _, id := range rel.Identifiers() {
		if tag, ok := byID[id.ID]; ok {
			s.Tags = append(s.Tags, tagFromResource(tag))
		}
	}
	return s
}
