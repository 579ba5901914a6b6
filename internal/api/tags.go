package api

import (
	"context"
	"fmt"
	"net/http"

	"studiomcp/internal/studio"
	"studiomcp/pkg/logging"
)

func tagAttributes(tag TagInput) map[string]any {
	attrs := map[string]any{"key": tag.Key}
	if tag.Value != "" {
		attrs["value"] = tag.Value
	}
	return attrs
}

// AddTag attaches one tag and returns the re-read scenario.
func (s *Service) AddTag(ctx context.Context, projectID, scenarioID string, tag TagInput) (Scenario, error) {
	if _, err := s.postTag(ctx, projectID, scenarioID, tag); err != nil {
		return Scenario{}, err
	}
	return s.GetScenario(ctx, projectID, scenarioID, true)
}

// AddTags attaches several tags. Each failure is logged and collected; the
// call only fails as a whole when no tag could be added.
func (s *Service) AddTags(ctx context.Context, projectID, scenarioID string, tags []TagInput) (TagBatchResult, error) {
	added, failures := s.addTags(ctx, projectID, scenarioID, tags)
	if len(added) == 0 && len(failures) > 0 {
		return TagBatchResult{}, &PartialFailureError{
			Operation: fmt.Sprintf("add tags to scenario %s", scenarioID),
			Succeeded: 0,
			Failures:  failures,
		}
	}

	sc, err := s.GetScenario(ctx, projectID, scenarioID, true)
	if err != nil {
		return TagBatchResult{}, err
	}
	return TagBatchResult{Scenario: sc, Added: added, Failed: failures}, nil
}

// UpdateTag changes a tag's key or value and returns the re-read scenario.
func (s *Service) UpdateTag(ctx context.Context, projectID, scenarioID, tagID string, tag TagInput) (Scenario, error) {
	payload := studio.NewPayload("tags", tagAttributes(tag))
	payload.Data.ID = tagID

	if _, err := s.requester.Do(ctx, http.MethodPatch, tagPath(projectID, scenarioID, tagID), payload); err != nil {
		return Scenario{}, fmt.Errorf("failed to update tag %s: %w", tagID, err)
	}
	return s.GetScenario(ctx, projectID, scenarioID, true)
}

// DeleteTag removes a tag and returns the re-read scenario.
func (s *Service) DeleteTag(ctx context.Context, projectID, scenarioID, tagID string) (Scenario, error) {
	if _, err := s.requester.Do(ctx, http.MethodDelete, tagPath(projectID, scenarioID, tagID), nil); err != nil {
		return Scenario{}, fmt.Errorf("failed to delete tag %s: %w", tagID, err)
	}
	return s.GetScenario(ctx, projectID, scenarioID, true)
}

func (s *Service) postTag(ctx context.Context, projectID, scenarioID string, tag TagInput) (Tag, error) {
	raw, err := s.requester.Do(ctx, http.MethodPost, tagsPath(projectID, scenarioID), studio.NewPayload("tags", tagAttributes(tag)))
	if err != nil {
		return Tag{}, fmt.Errorf("failed to add tag %q: %w", tag.Key, err)
	}
	if len(raw) == 0 {
		return Tag{Key: tag.Key, Value: tag.Value}, nil
	}
	r, _, err := studio.DecodeOne(raw)
	if err != nil {
		return Tag{}, err
	}
	return tagFromResource(r), nil
}

// addTags posts tags one by one and never stops at the first failure.
func (s *Service) addTags(ctx context.Context, projectID, scenarioID string, tags []TagInput) ([]Tag, []TagFailure) {
	added := []Tag{}
	var failures []TagFailure

	for _, tag := range tags {
		created, err := s.postTag(ctx, projectID, scenarioID, tag)
		if err != nil {
			logging.Error(subsystem, err, "Failed to add tag %q to scenario %s", tag.Key, scenarioID)
			failures = append(failures, TagFailure{Key: tag.Key, Value: tag.Value, Error: err.Error()})
			continue
		}
		added = append(added, created)
	}
	return added, failures
}
