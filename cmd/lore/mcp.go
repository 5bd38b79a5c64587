package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lthms/lore/internal/lore"
)

// MCPCmd serves read-only lore tools over stdio.
type MCPCmd struct {
	DB string `type:"path" help:"Database to serve. Defaults to store.path from the config."`
}

func (cmd *MCPCmd) Run(cfg *UserConfig) error {
	path, err := resolveDB(cmd.DB, cfg)
	if err != nil {
		return err
	}
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer closeStore(s)

	server := newMCPServer(lore.NewConn(s))
	slog.Debug("starting MCP server", "db", path)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}

type labelsArgs struct {
	Filter string `json:"filter,omitempty" jsonschema:"Case-insensitive substring of the entity label; empty lists every entity"`
}

type entityArgs struct {
	Label string `json:"label" jsonschema:"Exact entity label"`
}

type relationshipsArgs struct {
	Parent string `json:"parent,omitempty" jsonschema:"Exact parent label; empty matches any parent"`
	Child  string `json:"child,omitempty" jsonschema:"Exact child label; empty matches any child"`
}

type historyArgs struct {
	Year int32  `json:"year" jsonschema:"Year to list"`
	Day  string `json:"day,omitempty" jsonschema:"Day number, '-' for items without a day, empty for the whole year"`
}

// descriptorJSON is one descriptor of an entity as returned by lore_entity.
type descriptorJSON struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type relationshipJSON struct {
	Parent string  `json:"parent"`
	Child  string  `json:"child"`
	Role   *string `json:"role"`
}

type historyItemJSON struct {
	Timestamp  int64             `json:"timestamp"`
	Year       int32             `json:"year"`
	Day        *uint32           `json:"day"`
	Content    string            `json:"content"`
	Properties map[string]string `json:"properties,omitempty"`
}

// loreTools answers MCP tool calls from a lore connection.
type loreTools struct {
	q lore.Querier
}

func newMCPServer(q lore.Querier) *mcp.Server {
	t := &loreTools{q: q}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lore",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lore_labels",
		Description: "List entity labels in the lore database, optionally filtered by substring. Returns a JSON array of strings.",
	}, t.handleLabels)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lore_entity",
		Description: "Show the descriptors of an entity with their descriptions. Returns a JSON array of {name, description}.",
	}, t.handleEntity)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lore_relationships",
		Description: "List relationships between entities. Returns a JSON array of {parent, child, role}.",
	}, t.handleRelationships)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lore_history",
		Description: "List the history items of a year, optionally restricted to one day. Returns a JSON array of {timestamp, year, day, content, properties}.",
	}, t.handleHistory)
	return server
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil, nil
}

func (t *loreTools) handleLabels(ctx context.Context, req *mcp.CallToolRequest, args labelsArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("lore_labels called", "filter", args.Filter)
	labels, err := t.labels(args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(labels)
}

func (t *loreTools) labels(args labelsArgs) ([]string, error) {
	labels, err := t.q.QueryLabels(args.Filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out, nil
}

func (t *loreTools) handleEntity(ctx context.Context, req *mcp.CallToolRequest, args entityArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("lore_entity called", "label", args.Label)
	ds, err := t.entity(args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(ds)
}

func (t *loreTools) entity(args entityArgs) ([]descriptorJSON, error) {
	label, err := lore.ParseLabel(args.Label)
	if err != nil {
		return nil, err
	}
	names, err := t.q.QueryDescriptors(label, "")
	if err != nil {
		return nil, err
	}
	out := make([]descriptorJSON, 0, len(names))
	for _, name := range names {
		d, err := t.q.GetDescription(label, name)
		if err != nil {
			return nil, err
		}
		entry := descriptorJSON{Name: string(name)}
		if d != nil {
			s := string(*d)
			entry.Description = &s
		}
		out = append(out, entry)
	}
	return out, nil
}

func (t *loreTools) handleRelationships(ctx context.Context, req *mcp.CallToolRequest, args relationshipsArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("lore_relationships called", "parent", args.Parent, "child", args.Child)
	rels, err := t.relationships(args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(rels)
}

func (t *loreTools) relationships(args relationshipsArgs) ([]relationshipJSON, error) {
	var parent, child *lore.LabelMatch
	if args.Parent != "" {
		parent = lore.Exactly(lore.Label(args.Parent))
	}
	if args.Child != "" {
		child = lore.Exactly(lore.Label(args.Child))
	}
	rels, err := t.q.QueryRelationships(parent, child)
	if err != nil {
		return nil, err
	}
	out := make([]relationshipJSON, len(rels))
	for i, r := range rels {
		out[i] = relationshipJSON{Parent: string(r.Parent), Child: string(r.Child)}
		if r.Role != nil {
			role := string(*r.Role)
			out[i].Role = &role
		}
	}
	return out, nil
}

func (t *loreTools) handleHistory(ctx context.Context, req *mcp.CallToolRequest, args historyArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("lore_history called", "year", args.Year, "day", args.Day)
	items, err := t.history(args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(items)
}

func (t *loreTools) history(args historyArgs) ([]historyItemJSON, error) {
	var day *lore.Day
	if args.Day != "" {
		d, err := lore.ParseDayFilter(args.Day)
		if err != nil {
			return nil, err
		}
		day = &d
	}
	timestamps, err := t.q.QueryTimestamps(lore.Year(args.Year), day, nil)
	if err != nil {
		return nil, err
	}
	out := make([]historyItemJSON, 0, len(timestamps))
	for _, ts := range timestamps {
		item, err := t.q.GetHistoryItem(ts)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		h := historyItemJSON{
			Timestamp:  int64(item.Timestamp),
			Year:       int32(item.Year),
			Content:    string(item.Content),
			Properties: item.Properties,
		}
		if n, ok := item.Day.Value(); ok {
			h.Day = &n
		}
		out = append(out, h)
	}
	return out, nil
}
