package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"studiomcp/internal/scenario"
	"studiomcp/internal/studio"
	"studiomcp/pkg/logging"
)

// ListScenarios returns the scenarios of a project, with their tags when includeTags is set.
func (s *Service) ListScenarios(ctx context.Context, projectID string, includeTags bool) ([]Scenario, error) {
	raw, err := s.get(ctx, withIncludeTags(scenariosPath(projectID), includeTags))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios of project %s: %w", projectID, err)
	}
	return decodeScenarios(raw)
}

// GetScenario returns one scenario with its parsed steps.
func (s *Service) GetScenario(ctx context.Context, projectID, scenarioID string, includeTags bool) (Scenario, error) {
	raw, err := s.get(ctx, withIncludeTags(scenarioPath(projectID, scenarioID), includeTags))
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to get scenario %s: %w", scenarioID, err)
	}
	return decodeScenario(raw)
}

// FindScenariosByTags returns the scenarios carrying the tag key, optionally with a given value.
func (s *Service) FindScenariosByTags(ctx context.Context, projectID, key, value string) ([]Scenario, error) {
	query := url.Values{}
	query.Set("key", key)
	if value != "" {
		query.Set("value", value)
	}

	raw, err := s.get(ctx, scenariosPath(projectID)+"/find_by_tags?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios by tag %q: %w", key, err)
	}
	return decodeScenarios(raw)
}

// CreateScenario creates a scenario, renders its steps into the definition
// and adds its tags. When steps or tags were written, the returned
// scenario is re-read from the upstream. A failure after the POST is
// reported as *IncompleteCreateError carrying the new scenario ID.
func (s *Service) CreateScenario(ctx context.Context, projectID string, in CreateScenarioInput) (ScenarioWriteResult, error) {
	attrs := map[string]any{"name": in.Name}
	if in.Description != "" {
		attrs["description"] = in.Description
	}
	if in.FolderID != "" {
		attrs["folder_id"] = in.FolderID
	}

	raw, err := s.requester.Do(ctx, http.MethodPost, scenariosPath(projectID), studio.NewPayload("scenarios", attrs))
	if err != nil {
		return ScenarioWriteResult{}, fmt.Errorf("failed to create scenario %q: %w", in.Name, err)
	}
	created, err := decodeScenario(raw)
	if err != nil {
		return ScenarioWriteResult{}, err
	}
	logging.Info(subsystem, "Created scenario %s in project %s", created.ID, projectID)

	if len(in.Steps) == 0 && len(in.Tags) == 0 {
		return ScenarioWriteResult{Scenario: created}, nil
	}

	if len(in.Steps) > 0 {
		if err := s.writeDefinition(ctx, projectID, created.ID, map[string]any{
			"definition": scenario.FromStructured(in.Name, in.Steps),
		}); err != nil {
			return ScenarioWriteResult{}, &IncompleteCreateError{ScenarioID: created.ID, Stage: "writing its steps", Err: err}
		}
	}

	failures, err := s.tagScenario(ctx, projectID, created.ID, in.Tags)
	if err != nil {
		return ScenarioWriteResult{}, &IncompleteCreateError{ScenarioID: created.ID, Stage: "adding its tags", Err: err}
	}

	sc, err := s.GetScenario(ctx, projectID, created.ID, true)
	if err != nil {
		return ScenarioWriteResult{}, &IncompleteCreateError{ScenarioID: created.ID, Stage: "re-reading it", Err: err}
	}
	return ScenarioWriteResult{Scenario: sc, FailedTags: failures}, nil
}

// UpdateScenario changes attributes, steps and tags of a scenario.
func (s *Service) UpdateScenario(ctx context.Context, projectID, scenarioID string, in UpdateScenarioInput) (ScenarioWriteResult, error) {
	attrs := map[string]any{}
	if in.Name != nil {
		attrs["name"] = *in.Name
	}
	if in.Description != nil {
		attrs["description"] = *in.Description
	}
	if in.FolderID != nil {
		attrs["folder_id"] = *in.FolderID
	}

	if in.Steps != nil {
		name := ""
		if in.Name != nil {
			name = *in.Name
		} else {
			current, err := s.GetScenario(ctx, projectID, scenarioID, false)
			if err != nil {
				return ScenarioWriteResult{}, err
			}
			name = current.Name
		}
		if name == "" {
			return ScenarioWriteResult{}, ErrMissingName
		}
		attrs["definition"] = scenario.FromStructured(name, in.Steps)
	}

	var updated Scenario
	if len(attrs) > 0 {
		payload := studio.NewPayload("scenarios", attrs)
		payload.Data.ID = scenarioID

		raw, err := s.requester.Do(ctx, http.MethodPatch, scenarioPath(projectID, scenarioID), payload)
		if err != nil {
			return ScenarioWriteResult{}, fmt.Errorf("failed to update scenario %s: %w", scenarioID, err)
		}
		if len(raw) > 0 {
			if updated, err = decodeScenario(raw); err != nil {
				return ScenarioWriteResult{}, err
			}
		}
	}

	failures, err := s.tagScenario(ctx, projectID, scenarioID, in.Tags)
	if err != nil {
		return ScenarioWriteResult{}, err
	}

	if in.Steps != nil || len(in.Tags) > 0 || updated.ID == "" {
		sc, err := s.GetScenario(ctx, projectID, scenarioID, true)
		if err != nil {
			return ScenarioWriteResult{}, err
		}
		return ScenarioWriteResult{Scenario: sc, FailedTags: failures}, nil
	}
	return ScenarioWriteResult{Scenario: updated}, nil
}

// tagScenario adds tags as part of a scenario write. It returns the tags
// that failed when at least one succeeded, and a *PartialFailureError
// when none did.
func (s *Service) tagScenario(ctx context.Context, projectID, scenarioID string, tags []TagInput) ([]TagFailure, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	added, failures := s.addTags(ctx, projectID, scenarioID, tags)
	if len(added) == 0 && len(failures) > 0 {
		return nil, &PartialFailureError{
			Operation: fmt.Sprintf("add tags to scenario %s", scenarioID),
			Succeeded: 0,
			Failures:  failures,
		}
	}
	if len(failures) > 0 {
		logging.Warn(subsystem, "Scenario %s has %d of %d requested tags", scenarioID, len(added), len(tags))
	}
	return failures, nil
}

// DeleteScenario removes a scenario.
func (s *Service) DeleteScenario(ctx context.Context, projectID, scenarioID string) error {
	if _, err := s.requester.Do(ctx, http.MethodDelete, scenarioPath(projectID, scenarioID), nil); err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", scenarioID, err)
	}
	return nil
}

func (s *Service) writeDefinition(ctx context.Context, projectID, scenarioID string, attrs map[string]any) error {
	payload := studio.NewPayload("scenarios", attrs)
	payload.Data.ID = scenarioID

	if _, err := s.requester.Do(ctx, http.MethodPatch, scenarioPath(projectID, scenarioID), payload); err != nil {
		return fmt.Errorf("failed to write definition of scenario %s: %w", scenarioID, err)
	}
	return nil
}

func decodeScenario(raw json.RawMessage) (Scenario, error) {
	if len(raw) == 0 {
		return Scenario{}, ErrEmptyResponse
	}
	r, included, err := studio.DecodeOne(raw)
	if err != nil {
		return Scenario{}, err
	}
	return scenarioFromResource(r, included), nil
}

func decodeScenarios(raw json.RawMessage) ([]Scenario, error) {
	resources, included, _, err := studio.DecodeMany(raw)
	if err != nil {
		return nil, err
	}
	scenarios := make([]Scenario, 0, len(resources))
	for _, r := range resources {
		scenarios = append(scenarios, scenarioFromResource(r, included))
	}
	return scenarios, nil
}
