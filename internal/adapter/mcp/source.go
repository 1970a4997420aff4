// Package mcp implements the capability source and invoker ports against
// remote MCP servers over streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

// Source connects to one MCP server and exposes its tools as
// external-protocol capability descriptors.
type Source struct {
	name   string
	client mcpclient.MCPClient
}

// Connect dials an MCP server, performs the Initialize handshake and
// returns a Source named after the server definition.
func Connect(ctx context.Context, name, url string) (*Source, error) {
	client, err := mcpclient.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("mcp client %s: %w", name, err)
	}

	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "oneseek",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mcp initialize %s: %w", name, err)
	}

	return &Source{name: name, client: client}, nil
}

// Name identifies the source as "mcp:<server>".
func (s *Source) Name() string {
	return "mcp:" + s.name
}

// List discovers the server's tools and maps them to capability
// descriptors. IDs are namespaced by server name so two servers can
// expose a tool with the same name.
func (s *Source) List(ctx context.Context) ([]capdomain.Descriptor, error) {
	result, err := s.client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp list tools %s: %w", s.name, err)
	}

	descriptors := make([]capdomain.Descriptor, 0, len(result.Tools))
	for i := range result.Tools {
		tool := &result.Tools[i]

		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcp tool schema %s/%s: %w", s.name, tool.Name, err)
		}

		descriptors = append(descriptors, capdomain.Descriptor{
			ID:          s.name + "/" + tool.Name,
			Kind:        capdomain.KindExternalProtocol,
			Name:        tool.Name,
			Description: tool.Description,
			Category:    s.name,
			InputSchema: schema,
		})
	}
	return descriptors, nil
}

// Invoke calls the named tool and concatenates its text content. The
// capability ID must carry this source's "<server>/" prefix.
func (s *Source) Invoke(ctx context.Context, capabilityID string, args map[string]any) (string, error) {
	toolName, ok := strings.CutPrefix(capabilityID, s.name+"/")
	if !ok {
		return "", fmt.Errorf("capability %s does not belong to mcp server %s", capabilityID, s.name)
	}

	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp call tool %s/%s: %w", s.name, toolName, err)
	}

	var out strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(mcpprotocol.TextContent); ok {
			if out.Len() > 0 {
				out.WriteString("\n")
			}
			out.WriteString(text.Text)
		}
	}

	if result.IsError {
		return "", fmt.Errorf("mcp tool %s/%s failed: %s", s.name, toolName, out.String())
	}
	return out.String(), nil
}

// Close shuts down the MCP connection.
func (s *Source) Close() error {
	return s.client.Close()
}
