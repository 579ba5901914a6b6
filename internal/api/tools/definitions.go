package tools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"studiomcp/internal/scenario"
)

var stepItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type":        "string",
			"enum":        scenario.Keywords,
			"description": "Step keyword: given, when, then or and",
		},
		"text": map[string]any{
			"type":        "string",
			"description": "Step text, on one line, without single quotes",
		},
	},
	"required": []string{"type", "text"},
}

var tagItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"key":   map[string]any{"type": "string", "description": "Tag key"},
		"value": map[string]any{"type": "string", "description": "Tag value"},
	},
	"required": []string{"key"},
}

func projectIDOption() mcp.ToolOption {
	return mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("Project ID"),
	)
}

func scenarioIDOption() mcp.ToolOption {
	return mcp.WithString("scenario_id",
		mcp.Required(),
		mcp.Description("Scenario ID"),
	)
}

func includeTagsOption() mcp.ToolOption {
	return mcp.WithBoolean("include_tags",
		mcp.DefaultBool(true),
		mcp.Description("Include the scenario tags in the response"),
	)
}

// definitions lists every tool in registration order.
func (t *Tools) definitions() []*toolEntry {
	return []*toolEntry{
		// Read tools
		{
			tool: mcp.NewTool("get_projects",
				mcp.WithDescription("List all Cucumber Studio projects accessible with the configured credentials"),
			),
			action: "listing projects",
			invoke: bind(t.handleGetProjects),
		},
		{
			tool: mcp.NewTool("get_project",
				mcp.WithDescription("Get the details of a project"),
				projectIDOption(),
			),
			action: "getting the project",
			invoke: bind(t.handleGetProject),
		},
		{
			tool: mcp.NewTool("get_scenarios",
				mcp.WithDescription("List the scenarios of a project with their parsed steps"),
				projectIDOption(),
				includeTagsOption(),
			),
			action: "listing scenarios",
			invoke: bind(t.handleGetScenarios),
		},
		{
			tool: mcp.NewTool("get_scenario",
				mcp.WithDescription("Get a scenario with its definition parsed into steps"),
				projectIDOption(),
				scenarioIDOption(),
				includeTagsOption(),
			),
			action: "getting the scenario",
			invoke: bind(t.handleGetScenario),
		},
		{
			tool: mcp.NewTool("find_scenarios_by_tags",
				mcp.WithDescription("Find the scenarios carrying a tag key, optionally with a given value"),
				projectIDOption(),
				mcp.WithString("key",
					mcp.Required(),
					mcp.Description("Tag key to search for"),
				),
				mcp.WithString("value",
					mcp.Description("Tag value to match"),
				),
			),
			action: "searching scenarios by tag",
			invoke: bind(t.handleFindScenariosByTags),
		},
		{
			tool: mcp.NewTool("get_folders",
				mcp.WithDescription("List the folders of a project"),
				projectIDOption(),
			),
			action: "listing folders",
			invoke: bind(t.handleGetFolders),
		},

		// Write tools
		{
			tool: mcp.NewTool("create_scenario",
				mcp.WithDescription("Create a scenario, optionally with steps and tags"),
				projectIDOption(),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Scenario name, on one line, without single quotes"),
				),
				mcp.WithString("description",
					mcp.Description("Scenario description"),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to create the scenario in"),
				),
				mcp.WithArray("steps",
					mcp.Description("Ordered scenario steps"),
					mcp.Items(stepItemSchema),
				),
				mcp.WithArray("tags",
					mcp.Description("Tags to attach after creation"),
					mcp.Items(tagItemSchema),
				),
			),
			write:  true,
			action: "creating the scenario",
			invoke: bind(t.handleCreateScenario),
		},
		{
			tool: mcp.NewTool("update_scenario",
				mcp.WithDescription("Update a scenario. Omitted fields are left unchanged; steps replace the whole definition"),
				projectIDOption(),
				scenarioIDOption(),
				mcp.WithString("name",
					mcp.Description("New scenario name, on one line, without single quotes"),
				),
				mcp.WithString("description",
					mcp.Description("New description"),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to move the scenario to"),
				),
				mcp.WithArray("steps",
					mcp.Description("Replacement steps; an empty array clears the definition"),
					mcp.Items(stepItemSchema),
				),
				mcp.WithArray("tags",
					mcp.Description("Tags to add"),
					mcp.Items(tagItemSchema),
				),
			),
			write:  true,
			action: "updating the scenario",
			invoke: bind(t.handleUpdateScenario),
		},
		{
			tool: mcp.NewTool("add_tag",
				mcp.WithDescription("Add a tag to a scenario"),
				projectIDOption(),
				scenarioIDOption(),
				mcp.WithString("key",
					mcp.Required(),
					mcp.Description("Tag key"),
				),
				mcp.WithString("value",
					mcp.Description("Tag value"),
				),
			),
			write:  true,
			action: "adding the tag",
			invoke: bind(t.handleAddTag),
		},
		{
			tool: mcp.NewTool("add_tags",
				mcp.WithDescription("Add several tags to a scenario. Tags that fail are reported without stopping the others"),
				projectIDOption(),
				scenarioIDOption(),
				mcp.WithArray("tags",
					mcp.Required(),
					mcp.Description("Tags to add"),
					mcp.Items(tagItemSchema),
				),
			),
			write:  true,
			action: "adding tags",
			invoke: bind(t.handleAddTags),
		},
		{
			tool: mcp.NewTool("update_tag",
				mcp.WithDescription("Change the key or value of a scenario tag"),
				projectIDOption(),
				scenarioIDOption(),
				mcp.WithString("tag_id",
					mcp.Required(),
					mcp.Description("Tag ID"),
				),
				mcp.WithString("key",
					mcp.Required(),
					mcp.Description("Tag key"),
				),
				mcp.WithString("value",
					mcp.Description("Tag value"),
				),
			),
			write:  true,
			action: "updating the tag",
			invoke: bind(t.handleUpdateTag),
		},
		{
			tool: mcp.NewTool("delete_tag",
				mcp.WithDescription("Remove a tag from a scenario"),
				projectIDOption(),
				scenarioIDOption(),
				mcp.WithString("tag_id",
					mcp.Required(),
					mcp.Description("Tag ID"),
				),
			),
			write:  true,
			action: "deleting the tag",
			invoke: bind(t.handleDeleteTag),
		},
		{
			tool: mcp.NewTool("delete_scenario",
				mcp.WithDescription("Delete a scenario"),
				projectIDOption(),
				scenarioIDOption(),
			),
			write:  true,
			action: "deleting the scenario",
			invoke: bind(t.handleDeleteScenario),
		},
		{
			tool: mcp.NewTool("create_folder",
				mcp.WithDescription("Create a folder, optionally below a parent folder"),
				projectIDOption(),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Folder name"),
				),
				mcp.WithString("parent_id",
					mcp.Description("Parent folder ID"),
				),
			),
			write:  true,
			action: "creating the folder",
			invoke: bind(t.handleCreateFolder),
		},
		{
			tool: mcp.NewTool("update_folder",
				mcp.WithDescription("Rename or move a folder"),
				projectIDOption(),
				mcp.WithString("folder_id",
					mcp.Required(),
					mcp.Description("Folder ID"),
				),
				mcp.WithString("name",
					mcp.Description("New folder name"),
				),
				mcp.WithString("parent_id",
					mcp.Description("New parent folder ID"),
				),
			),
			write:  true,
			action: "updating the folder",
			invoke: bind(t.handleUpdateFolder),
		},
		{
			tool: mcp.NewTool("delete_folder",
				mcp.WithDescription("Delete a folder"),
				projectIDOption(),
				mcp.WithString("folder_id",
					mcp.Required(),
					mcp.Description("Folder ID"),
				),
			),
			write:  true,
			action: "deleting the folder",
			invoke: bind(t.handleDeleteFolder),
		},
	}
}
