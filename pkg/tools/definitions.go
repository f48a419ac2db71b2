// Package tools defines the tool surface exposed to the model and the
// executor that carries tool calls out against the local machine.
package tools

// Definition describes one callable tool in the OpenAI function format
// the chat API expects.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Schema renders the definition into the request's tools entry shape.
func (d Definition) Schema() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  d.Parameters,
		},
	}
}

var executeCommandTool = Definition{
	Name:        "execute_command",
	Description: "Execute a shell command in the project directory. Use for: running scripts, creating directories, managing files, etc.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute (e.g., 'mkdir foo', 'ls -la', 'python script.py')",
			},
		},
		"required": []string{"command"},
	},
}

var readFileTool = Definition{
	Name:        "read_file",
	Description: "Read the contents of a file in the project directory. Use for: viewing files, reading configuration, checking contents, etc.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to the file to read (relative to project root, e.g., 'README.md', 'src/main.py')",
			},
		},
		"required": []string{"file_path"},
	},
}

var writeFileTool = Definition{
	Name:        "write_file",
	Description: "Write content to a file in the project directory. Use for: creating files, updating configuration, writing code, etc.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to the file to write (relative to project root, e.g., 'config.yaml', 'src/new_file.py')",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file",
			},
		},
		"required": []string{"file_path", "content"},
	},
}

var searchWebTool = Definition{
	Name:        "search_web",
	Description: "Search the web for information. Use for: finding documentation, researching topics, getting current information, etc.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query (e.g., 'python documentation', 'how to create REST API')",
			},
		},
		"required": []string{"query"},
	},
}

// allTools is the fixed tool set, in the order presented to the model.
var allTools = []Definition{
	executeCommandTool,
	readFileTool,
	writeFileTool,
	searchWebTool,
}

// Definitions returns the declarations for every available tool.
func Definitions() []map[string]any {
	schemas := make([]map[string]any, 0, len(allTools))
	for _, tool := range allTools {
		schemas = append(schemas, tool.Schema())
	}
	return schemas
}

// Names returns the names of every available tool.
func Names() []string {
	names := make([]string, 0, len(allTools))
	for _, tool := range allTools {
		names = append(names, tool.Name)
	}
	return names
}

// Summaries returns "name - description" lines for display.
func Summaries() []string {
	summaries := make([]string, 0, len(allTools))
	for _, tool := range allTools {
		summaries = append(summaries, tool.Name+" - "+tool.Description)
	}
	return summaries
}
