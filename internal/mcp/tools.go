package mcp

import (
	"context"
	"fmt"
	"strings"

	"protodex/internal/projectctx"
	"protodex/internal/protocol"
	"protodex/internal/search"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolError renders a ProtocolError as an error tool result. The process
// never fails on a tool error; the payload carries the code.
func toolError(err *ProtocolError) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// argError reports an argument validation failure, naming the field.
func argError(field string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Validation error: argument %q: %v", field, err))
}

// GetProtocolTool serves a single protocol by name.
type GetProtocolTool struct {
	service *Service
}

func NewGetProtocolTool(service *Service) *GetProtocolTool {
	return &GetProtocolTool{service: service}
}

func (t *GetProtocolTool) Definition() mcp.Tool {
	return mcp.NewTool("get_protocol",
		mcp.WithDescription("Get the full content of a protocol by name. Returns the title, triggers, category, and raw markdown content."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Protocol name, with or without the .md extension"),
		),
	)
}

func (t *GetProtocolTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return argError("name", err), nil
	}

	meta, err := t.service.scanner.GetByName(name)
	if err != nil {
		return toolError(wrapInternal(err)), nil
	}
	if meta == nil {
		perr := newProtocolError(ErrProtocolNotFound, "protocol %q not found", name)
		perr.Details = "Known protocols: " + strings.Join(t.service.protocolNames(), ", ")
		return toolError(perr), nil
	}

	content, perr := t.service.protocolContent(meta)
	if perr != nil {
		return toolError(perr), nil
	}

	return mcp.NewToolResultText(renderProtocol(meta, content)), nil
}

// ListProtocolsTool enumerates the corpus, optionally filtered by category.
type ListProtocolsTool struct {
	service *Service
}

func NewListProtocolsTool(service *Service) *ListProtocolsTool {
	return &ListProtocolsTool{service: service}
}

func (t *ListProtocolsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_protocols",
		mcp.WithDescription("List all available protocols with their triggers, category, and purpose."),
		mcp.WithString("category",
			mcp.Description("Only list protocols in this category"),
		),
	)
}

func (t *ListProtocolsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")

	records, err := t.service.scanner.Scan()
	if err != nil {
		return toolError(wrapInternal(err)), nil
	}

	var b strings.Builder
	count := 0
	for i := range records {
		meta := &records[i]
		if category != "" && meta.Category != category {
			continue
		}
		count++
		fmt.Fprintf(&b, "### %s\n", meta.Name)
		fmt.Fprintf(&b, "- Title: %s\n", meta.Title)
		fmt.Fprintf(&b, "- Triggers: %s\n", strings.Join(meta.Triggers, ", "))
		fmt.Fprintf(&b, "- Category: %s\n", meta.Category)
		fmt.Fprintf(&b, "- Purpose: %s\n\n", meta.Purpose)
	}

	if count == 0 {
		if category != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No protocols found in category %q.", category)), nil
		}
		return mcp.NewToolResultText("No protocols found."), nil
	}

	header := fmt.Sprintf("## Protocols (%d)\n\n", count)
	return mcp.NewToolResultText(header + b.String()), nil
}

// GetProtocolByTriggerTool serves a protocol selected by trigger keyword.
type GetProtocolByTriggerTool struct {
	service *Service
}

func NewGetProtocolByTriggerTool(service *Service) *GetProtocolByTriggerTool {
	return &GetProtocolByTriggerTool{service: service}
}

func (t *GetProtocolByTriggerTool) Definition() mcp.Tool {
	return mcp.NewTool("get_protocol_by_trigger",
		mcp.WithDescription("Get the full content of a protocol by one of its trigger keywords (e.g. DEEPDIVE, FULLINDEX). Matching is case-insensitive."),
		mcp.WithString("trigger",
			mcp.Required(),
			mcp.Description("Trigger keyword declared by a protocol"),
		),
	)
}

func (t *GetProtocolByTriggerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trigger, err := req.RequireString("trigger")
	if err != nil {
		return argError("trigger", err), nil
	}

	meta, err := t.service.scanner.GetByTrigger(trigger)
	if err != nil {
		return toolError(wrapInternal(err)), nil
	}
	if meta == nil {
		perr := newProtocolError(ErrTriggerNotFound, "no protocol declares trigger %q", trigger)
		return toolError(perr), nil
	}

	content, perr := t.service.protocolContent(meta)
	if perr != nil {
		return toolError(perr), nil
	}

	return mcp.NewToolResultText(renderProtocol(meta, content)), nil
}

// SearchProtocolsTool runs weighted full-text search over the index.
type SearchProtocolsTool struct {
	service *Service
}

func NewSearchProtocolsTool(service *Service) *SearchProtocolsTool {
	return &SearchProtocolsTool{service: service}
}

func (t *SearchProtocolsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_protocols",
		mcp.WithDescription("Full-text search across protocol titles, triggers, purposes, and content. Results are ranked by relevance."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithString("category",
			mcp.Description("Only search protocols in this category"),
		),
		mcp.WithString("project_root",
			mcp.Description("Path to the caller's project; when given, results are re-ranked to favor the detected tech stack"),
		),
	)
}

func (t *SearchProtocolsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return argError("query", err), nil
	}
	category := req.GetString("category", "")
	projectRoot := req.GetString("project_root", "")

	index := t.service.indexer.Get()
	if index == nil {
		return toolError(newProtocolError(ErrIndexError, "search index has not been built")), nil
	}

	results := t.service.matcher.Search(index, query, &search.Options{Category: category})

	if projectRoot != "" {
		projectContext := projectctx.Detect(projectRoot)
		results = t.service.matcher.Contextualize(results, projectContext)
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No protocols matched %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Search results for %q (%d)\n\n", query, len(results))
	for _, result := range results {
		fmt.Fprintf(&b, "### %s (score %d)\n", result.Protocol, result.Score)
		if result.ContextRelevance != "" {
			fmt.Fprintf(&b, "- Context relevance: %s\n", result.ContextRelevance)
		}
		if len(result.Matches) > 0 {
			b.WriteString("- Matching lines:\n")
			for _, line := range result.Matches {
				fmt.Fprintf(&b, "  - %s\n", line)
			}
		}
		fmt.Fprintf(&b, "- Excerpt: %s\n\n", result.Excerpt)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// fuzzyDisplayLimit caps how many fuzzy matches are shown.
const fuzzyDisplayLimit = 5

// FuzzyMatchProtocolTool suggests protocol names close to a misspelled one.
type FuzzyMatchProtocolTool struct {
	service *Service
}

func NewFuzzyMatchProtocolTool(service *Service) *FuzzyMatchProtocolTool {
	return &FuzzyMatchProtocolTool{service: service}
}

func (t *FuzzyMatchProtocolTool) Definition() mcp.Tool {
	return mcp.NewTool("fuzzy_match_protocol",
		mcp.WithDescription("Find protocols whose names approximately match the given name. Useful when the exact name is unknown or misspelled."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Approximate protocol name"),
		),
	)
}

func (t *FuzzyMatchProtocolTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return argError("name", err), nil
	}

	index := t.service.indexer.Get()
	if index == nil {
		return toolError(newProtocolError(ErrIndexError, "search index has not been built")), nil
	}

	matches := t.service.matcher.FuzzyMatch(index, name)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No protocols are similar to %q.", name)), nil
	}
	if len(matches) > fuzzyDisplayLimit {
		matches = matches[:fuzzyDisplayLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Closest matches for %q\n\n", name)
	for _, match := range matches {
		fmt.Fprintf(&b, "- %s (similarity %.2f)\n", match.Protocol, match.Similarity)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// RouteTaskTool classifies a task description and recommends a protocol
// workflow for it.
type RouteTaskTool struct {
	service *Service
}

func NewRouteTaskTool(service *Service) *RouteTaskTool {
	return &RouteTaskTool{service: service}
}

func (t *RouteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("route_task",
		mcp.WithDescription("Analyze a task description, classify its type, and recommend an ordered protocol workflow with shortcuts."),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Free-text description of the task to route"),
		),
		mcp.WithString("task_type",
			mcp.Description("Override the inferred task type (debug, build, refactor, audit, optimize, test, setup, document, unknown)"),
		),
	)
}

func (t *RouteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return argError("description", err), nil
	}
	override := req.GetString("task_type", "")

	inferred := search.AnalyzeTaskIntent(description)
	taskType := inferred
	warning := ""
	if override != "" {
		if search.ValidTaskType(override) {
			taskType = search.TaskType(override)
		} else {
			warning = fmt.Sprintf("Warning: %q is not a valid task type, using inferred type %q instead.\n\n", override, inferred)
		}
	}

	steps := search.BuildWorkflow(taskType, nil)

	var b strings.Builder
	b.WriteString(warning)
	fmt.Fprintf(&b, "## Task routing\n\n")
	fmt.Fprintf(&b, "- Task type: %s\n", taskType)
	fmt.Fprintf(&b, "- Difficulty: %s\n", search.TaskDifficulty(taskType))
	fmt.Fprintf(&b, "- Estimated time: %s\n", search.TaskTimeEstimate(taskType))
	fmt.Fprintf(&b, "- Tags: %s\n\n", strings.Join(search.TaskTags(taskType), ", "))
	b.WriteString(search.FormatWorkflow(steps, taskType))

	if shortcuts := search.WorkflowShortcuts(taskType); len(shortcuts) > 0 {
		b.WriteString("## Shortcuts\n\n")
		for _, shortcut := range shortcuts {
			fmt.Fprintf(&b, "- %s: %s\n", shortcut.Name, strings.Join(shortcut.Protocols, " -> "))
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

// renderProtocol is the shared payload shape for get_protocol and
// get_protocol_by_trigger.
func renderProtocol(meta *protocol.Metadata, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	fmt.Fprintf(&b, "Triggers: %s\n", strings.Join(meta.Triggers, ", "))
	fmt.Fprintf(&b, "Category: %s\n\n", meta.Category)
	b.WriteString("---\n\n")
	b.WriteString(content)
	return b.String()
}
