package tools

import (
	"studiomcp/internal/api"
	"studiomcp/internal/scenario"
)

// Parameter structs are decoded from the validated tool arguments. The json
// tags are the argument names declared in definitions.go.

type projectParams struct {
	ProjectID string `json:"project_id" validate:"required"`
}

type listScenariosParams struct {
	ProjectID   string `json:"project_id" validate:"required"`
	IncludeTags bool   `json:"include_tags"`
}

type scenarioParams struct {
	ProjectID   string `json:"project_id" validate:"required"`
	ScenarioID  string `json:"scenario_id" validate:"required"`
	IncludeTags bool   `json:"include_tags"`
}

type findByTagsParams struct {
	ProjectID string `json:"project_id" validate:"required"`
	Key       string `json:"key" validate:"required"`
	Value     string `json:"value"`
}

type stepParam struct {
	Type string `json:"type" validate:"required,oneof=given when then and"`
	Text string `json:"text" validate:"required,literal"`
}

type tagParam struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

type createScenarioParams struct {
	ProjectID   string      `json:"project_id" validate:"required"`
	Name        string      `json:"name" validate:"required,literal"`
	Description string      `json:"description"`
	FolderID    string      `json:"folder_id"`
	Steps       []stepParam `json:"steps" validate:"dive"`
	Tags        []tagParam  `json:"tags" validate:"dive"`
}

// updateScenarioParams keeps absent fields nil. An explicit empty steps
// array is distinct from a missing one and clears the definition.
type updateScenarioParams struct {
	ProjectID   string      `json:"project_id" validate:"required"`
	ScenarioID  string      `json:"scenario_id" validate:"required"`
	Name        *string     `json:"name" validate:"omitempty,literal"`
	Description *string     `json:"description"`
	FolderID    *string     `json:"folder_id"`
	Steps       []stepParam `json:"steps" validate:"dive"`
	Tags        []tagParam  `json:"tags" validate:"dive"`
}

type scenarioRefParams struct {
	ProjectID  string `json:"project_id" validate:"required"`
	ScenarioID string `json:"scenario_id" validate:"required"`
}

type addTagParams struct {
	ProjectID  string `json:"project_id" validate:"required"`
	ScenarioID string `json:"scenario_id" validate:"required"`
	Key        string `json:"key" validate:"required"`
	Value      string `json:"value"`
}

type addTagsParams struct {
	ProjectID  string     `json:"project_id" validate:"required"`
	ScenarioID string     `json:"scenario_id" validate:"required"`
	Tags       []tagParam `json:"tags" validate:"required,min=1,dive"`
}

type updateTagParams struct {
	ProjectID  string `json:"project_id" validate:"required"`
	ScenarioID string `json:"scenario_id" validate:"required"`
	TagID      string `json:"tag_id" validate:"required"`
	Key        string `json:"key" validate:"required"`
	Value      string `json:"value"`
}

type tagRefParams struct {
	ProjectID  string `json:"project_id" validate:"required"`
	ScenarioID string `json:"scenario_id" validate:"required"`
	TagID      string `json:"tag_id" validate:"required"`
}

type createFolderParams struct {
	ProjectID string `json:"project_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	ParentID  string `json:"parent_id"`
}

type updateFolderParams struct {
	ProjectID string  `json:"project_id" validate:"required"`
	FolderID  string  `json:"folder_id" validate:"required"`
	Name      *string `json:"name"`
	ParentID  *string `json:"parent_id"`
}

type folderRefParams struct {
	ProjectID string `json:"project_id" validate:"required"`
	FolderID  string `json:"folder_id" validate:"required"`
}

func toSteps(in []stepParam) []scenario.Step {
	if in == nil {
		return nil
	}
	steps := make([]scenario.Step, 0, len(in))
	for _, s := range in {
		steps = append(steps, scenario.Step{Type: s.Type, Text: s.Text})
	}
	return steps
}

func toTags(in []tagParam) []api.TagInput {
	tags := make([]api.TagInput, 0, len(in))
	for _, t := range in {
		tags = append(tags, api.TagInput{Key: t.Key, Value: t.Value})
	}
	return tags
}
