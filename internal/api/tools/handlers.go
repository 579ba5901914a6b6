package tools

import (
	"context"
	"fmt"

	"studiomcp/internal/api"
)

type noParams struct{}

func (t *Tools) handleGetProjects(ctx context.Context, _ noParams) (any, error) {
	projects, err := t.service.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	}, nil
}

func (t *Tools) handleGetProject(ctx context.Context, p projectParams) (any, error) {
	return t.service.GetProject(ctx, p.ProjectID)
}

func (t *Tools) handleGetScenarios(ctx context.Context, p listScenariosParams) (any, error) {
	scenarios, err := t.service.ListScenarios(ctx, p.ProjectID, p.IncludeTags)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"scenarios": scenarios,
		"total":     len(scenarios),
	}, nil
}

func (t *Tools) handleGetScenario(ctx context.Context, p scenarioParams) (any, error) {
	return t.service.GetScenario(ctx, p.ProjectID, p.ScenarioID, p.IncludeTags)
}

func (t *Tools) handleFindScenariosByTags(ctx context.Context, p findByTagsParams) (any, error) {
	scenarios, err := t.service.FindScenariosByTags(ctx, p.ProjectID, p.Key, p.Value)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"scenarios": scenarios,
		"total":     len(scenarios),
	}, nil
}

func (t *Tools) handleGetFolders(ctx context.Context, p projectParams) (any, error) {
	folders, err := t.service.ListFolders(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"folders": folders,
		"total":   len(folders),
	}, nil
}

func (t *Tools) handleCreateScenario(ctx context.Context, p createScenarioParams) (any, error) {
	return t.service.CreateScenario(ctx, p.ProjectID, api.CreateScenarioInput{
		Name:        p.Name,
		Description: p.Description,
		FolderID:    p.FolderID,
		Steps:       toSteps(p.Steps),
		Tags:        toTags(p.Tags),
	})
}

func (t *Tools) handleUpdateScenario(ctx context.Context, p updateScenarioParams) (any, error) {
	return t.service.UpdateScenario(ctx, p.ProjectID, p.ScenarioID, api.UpdateScenarioInput{
		Name:        p.Name,
		Description: p.Description,
		FolderID:    p.FolderID,
		Steps:       toSteps(p.Steps),
		Tags:        toTags(p.Tags),
	})
}

func (t *Tools) handleAddTag(ctx context.Context, p addTagParams) (any, error) {
	return t.service.AddTag(ctx, p.ProjectID, p.ScenarioID, api.TagInput{Key: p.Key, Value: p.Value})
}

func (t *Tools) handleAddTags(ctx context.Context, p addTagsParams) (any, error) {
	return t.service.AddTags(ctx, p.ProjectID, p.ScenarioID, toTags(p.Tags))
}

func (t *Tools) handleUpdateTag(ctx context.Context, p updateTagParams) (any, error) {
	return t.service.UpdateTag(ctx, p.ProjectID, p.ScenarioID, p.TagID, api.TagInput{Key: p.Key, Value: p.Value})
}

func (t *Tools) handleDeleteTag(ctx context.Context, p tagRefParams) (any, error) {
	return t.service.DeleteTag(ctx, p.ProjectID, p.ScenarioID, p.TagID)
}

func (t *Tools) handleDeleteScenario(ctx context.Context, p scenarioRefParams) (any, error) {
	if err := t.service.DeleteScenario(ctx, p.ProjectID, p.ScenarioID); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully deleted scenario '%s'", p.ScenarioID), nil
}

func (t *Tools) handleCreateFolder(ctx context.Context, p createFolderParams) (any, error) {
	return t.service.CreateFolder(ctx, p.ProjectID, p.Name, p.ParentID)
}

func (t *Tools) handleUpdateFolder(ctx context.Context, p updateFolderParams) (any, error) {
	return t.service.UpdateFolder(ctx, p.ProjectID, p.FolderID, p.Name, p.ParentID)
}

func (t *Tools) handleDeleteFolder(ctx context.Context, p folderRefParams) (any, error) {
	if err := t.service.DeleteFolder(ctx, p.ProjectID, p.FolderID); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully deleted folder '%s'", p.FolderID), nil
}
