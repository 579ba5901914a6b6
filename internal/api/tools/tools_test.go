package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiomcp/internal/api"
	"studiomcp/internal/scenario"
	"studiomcp/internal/studio"
)

type recordedCall struct {
	Method string
	Path   string
	Body   any
}

// recordingRequester answers by "METHOD path" and records every call.
type recordingRequester struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]string
	failures  map[string]error
}

func newRecordingRequester() *recordingRequester {
	return &recordingRequester{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (r *recordingRequester) on(method, path, body string) *recordingRequester {
	r.responses[method+" "+path] = body
	return r
}

func (r *recordingRequester) fail(method, path string, err error) *recordingRequester {
	r.failures[method+" "+path] = err
	return r
}

func (r *recordingRequester) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{Method: method, Path: path, Body: body})

	key := method + " " + path
	if err, ok := r.failures[key]; ok {
		return nil, err
	}
	resp, ok := r.responses[key]
	if !ok {
		return nil, &studio.Error{Kind: studio.KindRejected, Method: method, Path: path, StatusCode: http.StatusNotFound}
	}
	if resp == "" {
		return nil, nil
	}
	return json.RawMessage(resp), nil
}

func (r *recordingRequester) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestTools(t *testing.T, req api.Requester, opts Options) *Tools {
	t.Helper()
	tools, err := New(api.NewService(req), opts)
	require.NoError(t, err)
	return tools
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

var (
	readTools = []string{
		"get_projects", "get_project", "get_scenarios", "get_scenario",
		"find_scenarios_by_tags", "get_folders",
	}
	writeTools = []string{
		"create_scenario", "update_scenario", "add_tag", "add_tags", "update_tag",
		"delete_tag", "delete_scenario", "create_folder", "update_folder", "delete_folder",
	}
)

func TestNew_RegistersTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{name: "all tools", want: append(append([]string{}, readTools...), writeTools...)},
		{name: "read-only hides writes", readOnly: true, want: readTools},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := newTestTools(t, newRecordingRequester(), Options{ReadOnly: tt.readOnly})

			assert.Equal(t, tt.want, tools.Names())

			serverTools := tools.ServerTools()
			require.Len(t, serverTools, len(tt.want))
			for i, st := range serverTools {
				assert.Equal(t, tt.want[i], st.Tool.Name)
				assert.NotEmpty(t, st.Tool.Description)
				assert.NotNil(t, st.Handler)
			}
		})
	}
}

func TestIsWrite(t *testing.T) {
	tools := newTestTools(t, newRecordingRequester(), Options{})

	for _, name := range readTools {
		assert.False(t, tools.IsWrite(name), name)
	}
	for _, name := range writeTools {
		assert.True(t, tools.IsWrite(name), name)
	}
	assert.False(t, tools.IsWrite("unknown"))
}

func TestReadOnlyRejectsWritesWithoutNetworkCalls(t *testing.T) {
	req := newRecordingRequester()
	tools := newTestTools(t, req, Options{ReadOnly: true})

	for _, name := range writeTools {
		t.Run(name, func(t *testing.T) {
			result := tools.Call(context.Background(), name, map[string]interface{}{
				"project_id":  "1",
				"scenario_id": "2",
				"name":        "x",
			})

			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "read-only mode")
		})
	}
	assert.Equal(t, 0, req.callCount())
}

func TestCreateScenario_EndToEnd(t *testing.T) {
	req := newRecordingRequester().
		on("POST", "/projects/1/scenarios", `{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout"}}}`).
		on("PATCH", "/projects/1/scenarios/42", `{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout"}}}`).
		on("GET", "/projects/1/scenarios/42?include=tags",
			`{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout","definition":"scenario 'Checkout' do\n  call given 'items in cart'\nend"}}}`)
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "create_scenario", map[string]interface{}{
		"project_id": "1",
		"name":       "Checkout",
		"steps": []interface{}{
			map[string]interface{}{"type": "given", "text": "items in cart"},
		},
	})

	require.False(t, result.IsError, resultText(t, result))
	require.Len(t, req.calls, 3)
	assert.Equal(t, "POST", req.calls[0].Method)
	assert.Equal(t, "PATCH", req.calls[1].Method)
	assert.Equal(t, "GET", req.calls[2].Method)

	var created api.Scenario
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &created))
	assert.Equal(t, []scenario.Step{{Type: "given", Text: "items in cart"}}, created.Steps)
}

func TestCreateScenario_TagFailuresAreReported(t *testing.T) {
	tests := []struct {
		name      string
		sanitize  bool
		wantError string
	}{
		{name: "detailed", wantError: "scenario 42 was created but adding its tags failed"},
		{name: "sanitized", sanitize: true, wantError: "Scenario 42 was created but adding its tags failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Tag POSTs are unmapped and answer 404.
			req := newRecordingRequester().
				on("POST", "/projects/1/scenarios", `{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout"}}}`)
			tools := newTestTools(t, req, Options{SanitizeErrors: tt.sanitize})

			result := tools.Call(context.Background(), "create_scenario", map[string]interface{}{
				"project_id": "1",
				"name":       "Checkout",
				"tags": []interface{}{
					map[string]interface{}{"key": "smoke"},
					map[string]interface{}{"key": "p1"},
				},
			})

			require.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantError)
			assert.Equal(t, 3, req.callCount())
		})
	}
}

// failNthTagPost fails the failAt-th tag POST (1-based) and answers the rest normally.
type failNthTagPost struct {
	*recordingRequester
	failAt int
	posts  int
}

func (f *failNthTagPost) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := f.recordingRequester.Do(ctx, method, path, body)
	if method == http.MethodPost && strings.HasSuffix(path, "/tags") {
		f.posts++
		if f.posts == f.failAt {
			return nil, errors.New("tag rejected")
		}
	}
	return raw, err
}

func TestCreateScenario_PartialTagFailureInResult(t *testing.T) {
	req := &failNthTagPost{
		recordingRequester: newRecordingRequester().
			on("POST", "/projects/1/scenarios", `{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout"}}}`).
			on("POST", "/projects/1/scenarios/42/tags", `{"data":{"type":"tags","id":"7","attributes":{"key":"smoke"}}}`).
			on("GET", "/projects/1/scenarios/42?include=tags", `{"data":{"type":"scenarios","id":"42","attributes":{"name":"Checkout"}}}`),
		failAt: 2,
	}
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "create_scenario", map[string]interface{}{
		"project_id": "1",
		"name":       "Checkout",
		"tags": []interface{}{
			map[string]interface{}{"key": "smoke"},
			map[string]interface{}{"key": "p1"},
		},
	})

	require.False(t, result.IsError, resultText(t, result))
	var got api.ScenarioWriteResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	assert.Equal(t, "42", got.ID)
	require.Len(t, got.FailedTags, 1)
	assert.Equal(t, "p1", got.FailedTags[0].Key)
	assert.Contains(t, got.FailedTags[0].Error, "tag rejected")
}

func TestIncludeTagsDefaultsToTrue(t *testing.T) {
	req := newRecordingRequester().
		on("GET", "/projects/1/scenarios/2?include=tags", `{"data":{"type":"scenarios","id":"2","attributes":{"name":"A"}}}`).
		on("GET", "/projects/1/scenarios/2", `{"data":{"type":"scenarios","id":"2","attributes":{"name":"A"}}}`)
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "get_scenario", map[string]interface{}{
		"project_id":  "1",
		"scenario_id": "2",
	})
	require.False(t, result.IsError)

	result = tools.Call(context.Background(), "get_scenario", map[string]interface{}{
		"project_id":   "1",
		"scenario_id":  "2",
		"include_tags": false,
	})
	require.False(t, result.IsError)

	require.Len(t, req.calls, 2)
	assert.Equal(t, "/projects/1/scenarios/2?include=tags", req.calls[0].Path)
	assert.Equal(t, "/projects/1/scenarios/2", req.calls[1].Path)
}

func TestValidationRejectsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		args       map[string]interface{}
		wantReason string
	}{
		{
			name:       "missing required argument",
			tool:       "get_project",
			args:       map[string]interface{}{},
			wantReason: "project_id",
		},
		{
			name:       "wrong argument type",
			tool:       "get_scenarios",
			args:       map[string]interface{}{"project_id": "1", "include_tags": "yes"},
			wantReason: "include_tags",
		},
		{
			name: "unknown step type",
			tool: "create_scenario",
			args: map[string]interface{}{
				"project_id": "1",
				"name":       "A",
				"steps":      []interface{}{map[string]interface{}{"type": "maybe", "text": "x"}},
			},
			wantReason: "steps.0.type",
		},
		{
			name: "single quote in step text",
			tool: "create_scenario",
			args: map[string]interface{}{
				"project_id": "1",
				"name":       "A",
				"steps":      []interface{}{map[string]interface{}{"type": "given", "text": "the user's cart"}},
			},
			wantReason: "must not contain a single quote",
		},
		{
			name:       "single quote in scenario name",
			tool:       "update_scenario",
			args:       map[string]interface{}{"project_id": "1", "scenario_id": "2", "name": "Bob's"},
			wantReason: "name must not contain a single quote",
		},
		{
			name: "line break in step text",
			tool: "create_scenario",
			args: map[string]interface{}{
				"project_id": "1",
				"name":       "Checkout",
				"steps":      []interface{}{map[string]interface{}{"type": "given", "text": "items\nin cart"}},
			},
			wantReason: "steps[0].text must not contain a single quote or a line break",
		},
		{
			name:       "carriage return in scenario name",
			tool:       "create_scenario",
			args:       map[string]interface{}{"project_id": "1", "name": "Check\rout"},
			wantReason: "name must not contain a single quote or a line break",
		},
		{
			name:       "empty project id",
			tool:       "get_folders",
			args:       map[string]interface{}{"project_id": ""},
			wantReason: "project_id is required",
		},
		{
			name:       "empty tag list",
			tool:       "add_tags",
			args:       map[string]interface{}{"project_id": "1", "scenario_id": "2", "tags": []interface{}{}},
			wantReason: "tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRecordingRequester()
			tools := newTestTools(t, req, Options{SanitizeErrors: true})

			result := tools.Call(context.Background(), tt.tool, tt.args)

			assert.True(t, result.IsError)
			text := resultText(t, result)
			assert.Contains(t, text, "Invalid arguments")
			assert.Contains(t, text, tt.wantReason)
			assert.Equal(t, 0, req.callCount())
		})
	}
}

func TestUpstreamErrorMessages(t *testing.T) {
	upstreamErr := &studio.Error{
		Kind:       studio.KindRejected,
		Method:     "GET",
		Path:       "/projects/1",
		StatusCode: http.StatusForbidden,
		Details:    []string{"secret project"},
	}

	tests := []struct {
		name     string
		sanitize bool
		want     string
		notWant  string
	}{
		{
			name: "detailed",
			want: "Failed getting the project: failed to get project 1: GET /projects/1: upstream returned status 403: secret project",
		},
		{
			name:     "sanitized",
			sanitize: true,
			want:     "An error occurred while getting the project. Check the server logs for details.",
			notWant:  "secret project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRecordingRequester().fail("GET", "/projects/1", upstreamErr)
			tools := newTestTools(t, req, Options{SanitizeErrors: tt.sanitize})

			result := tools.Call(context.Background(), "get_project", map[string]interface{}{"project_id": "1"})

			assert.True(t, result.IsError)
			text := resultText(t, result)
			assert.Equal(t, tt.want, text)
			if tt.notWant != "" {
				assert.NotContains(t, text, tt.notWant)
			}
		})
	}
}

func TestUnknownTool(t *testing.T) {
	tools := newTestTools(t, newRecordingRequester(), Options{})

	result := tools.Call(context.Background(), "drop_database", nil)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Unknown tool")
}

func TestGetProjects(t *testing.T) {
	req := newRecordingRequester().on("GET", "/projects",
		`{"data":[{"type":"projects","id":"1","attributes":{"name":"Shop"}}]}`)
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "get_projects", nil)

	require.False(t, result.IsError)
	var payload struct {
		Projects []api.Project `json:"projects"`
		Total    int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.Equal(t, "Shop", payload.Projects[0].Name)
}

func TestAddTags_PartialFailure(t *testing.T) {
	req := newRecordingRequester().
		on("POST", "/projects/1/scenarios/2/tags", `{"data":{"type":"tags","id":"9","attributes":{"key":"smoke"}}}`).
		on("GET", "/projects/1/scenarios/2?include=tags", `{"data":{"type":"scenarios","id":"2","attributes":{"name":"A"}}}`)
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "add_tags", map[string]interface{}{
		"project_id":  "1",
		"scenario_id": "2",
		"tags":        []interface{}{map[string]interface{}{"key": "smoke"}},
	})

	require.False(t, result.IsError, resultText(t, result))
	var batch api.TagBatchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &batch))
	assert.Len(t, batch.Added, 1)
	assert.Empty(t, batch.Failed)
}

func TestAddTags_AllFail(t *testing.T) {
	req := newRecordingRequester().
		fail("POST", "/projects/1/scenarios/2/tags", &studio.Error{Kind: studio.KindNoResponse, Method: "POST", Path: "/projects/1/scenarios/2/tags"})
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "add_tags", map[string]interface{}{
		"project_id":  "1",
		"scenario_id": "2",
		"tags": []interface{}{
			map[string]interface{}{"key": "a"},
			map[string]interface{}{"key": "b"},
		},
	})

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "0 succeeded, 2 failed")
	assert.Equal(t, 2, req.callCount())
}

func TestDeleteScenario(t *testing.T) {
	req := newRecordingRequester().on("DELETE", "/projects/1/scenarios/2", "")
	tools := newTestTools(t, req, Options{})

	result := tools.Call(context.Background(), "delete_scenario", map[string]interface{}{
		"project_id":  "1",
		"scenario_id": "2",
	})

	require.False(t, result.IsError)
	assert.Equal(t, "Successfully deleted scenario '2'", resultText(t, result))
}

func TestHandler_UsesRequestArguments(t *testing.T) {
	req := newRecordingRequester().on("GET", "/projects/1/folders", `{"data":[]}`)
	tools := newTestTools(t, req, Options{})

	result, err := tools.Handler("get_folders")(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "get_folders",
			Arguments: map[string]interface{}{"project_id": "1"},
		},
	})

	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"total": 0`)
}
