package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"studiomcp/internal/studio"
)

const subsystem = "API"

// Service implements the Cucumber Studio operations exposed as tools.
type Service struct {
	requester Requester
}

// NewService creates a service issuing its calls through r.
func NewService(r Requester) *Service {
	return &Service{requester: r}
}

func projectPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID)
}

func scenariosPath(projectID string) string {
	return projectPath(projectID) + "/scenarios"
}

func scenarioPath(projectID, scenarioID string) string {
	return scenariosPath(projectID) + "/" + url.PathEscape(scenarioID)
}

func tagsPath(projectID, scenarioID string) string {
	return scenarioPath(projectID, scenarioID) + "/tags"
}

func tagPath(projectID, scenarioID, tagID string) string {
	return tagsPath(projectID, scenarioID) + "/" + url.PathEscape(tagID)
}

func foldersPath(projectID string) string {
	return projectPath(projectID) + "/folders"
}

func folderPath(projectID, folderID string) string {
	return foldersPath(projectID) + "/" + url.PathEscape(folderID)
}

func withIncludeTags(path string, include bool) string {
	if include {
		return path + "?include=tags"
	}
	return path
}

func (s *Service) get(ctx context.Context, path string) (json.RawMessage, error) {
	return s.requester.Do(ctx, http.MethodGet, path, nil)
}

// ListProjects returns every project visible to the credentials.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	raw, err := s.get(ctx, "/projects")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	resources, _, _, err := studio.DecodeMany(raw)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(resources))
	for _, r := range resources {
		projects = append(projects, projectFromResource(r))
	}
	return projects, nil
}

// GetProject returns a single project.
func (s *Service) GetProject(ctx context.Context, projectID string) (Project, error) {
	raw, err := s.get(ctx, projectPath(projectID))
	if err != nil {
		return Project{}, fmt.Errorf("failed to get project %s: %w", projectID, err)
	}
	r, _, err := studio.DecodeOne(raw)
	if err != nil {
		return Project{}, err
	}
	return projectFromResource(r), nil
}

// ListFolders returns the folders of a project.
func (s *Service) ListFolders(ctx context.Context, projectID string) ([]Folder, error) {
	raw, err := s.get(ctx, foldersPath(projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to list folders of project %s: %w", projectID, err)
	}
	resources, _, _, err := studio.DecodeMany(raw)
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, 0, len(resources))
	for _, r := range resources {
		folders = append(folders, folderFromResource(r))
	}
	return folders, nil
}

// CreateFolder creates a folder, optionally below parentID.
func (s *Service) CreateFolder(ctx context.Context, projectID, name, parentID string) (Folder, error) {
	attrs := map[string]any{"name": name}
	if parentID != "" {
		attrs["parent_id"] = parentID
	}

	raw, err := s.requester.Do(ctx, http.MethodPost, foldersPath(projectID), studio.NewPayload("folders", attrs))
	if err != nil {
		return Folder{}, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return decodeFolder(raw)
}

// UpdateFolder renames or moves a folder. Nil arguments are left unchanged.
func (s *Service) UpdateFolder(ctx context.Context, projectID, folderID string, name, parentID *string) (Folder, error) {
	attrs := map[string]any{}
	if name != nil {
		attrs["name"] = *name
	}
	if parentID != nil {
		attrs["parent_id"] = *parentID
	}

	payload := studio.NewPayload("folders", attrs)
	payload.Data.ID = folderID

	raw, err := s.requester.Do(ctx, http.MethodPatch, folderPath(projectID, folderID), payload)
	if err != nil {
		return Folder{}, fmt.Errorf("failed to update folder %s: %w", folderID, err)
	}
	return decodeFolder(raw)
}

// DeleteFolder removes a folder.
func (s *Service) DeleteFolder(ctx context.Context, projectID, folderID string) error {
	if _, err := s.requester.Do(ctx, http.MethodDelete, folderPath(projectID, folderID), nil); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", folderID, err)
	}
	return nil
}

func decodeFolder(raw json.RawMessage) (Folder, error) {
	if len(raw) == 0 {
		return Folder{}, ErrEmptyResponse
	}
	r, _, err := studio.DecodeOne(raw)
	if err != nil {
		return Folder{}, err
	}
	return folderFromResource(r), nil
}
