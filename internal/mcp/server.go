// internal/mcp/server.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/services"
)

const (
	serverName = "PoetryKGQA"
	statsURI   = "poetry://graph/stats"
)

// PoetryServer 通过 MCP 暴露诗词问答
type PoetryServer struct {
	service *services.QueryService
}

// NewServer 注册工具与资源
func NewServer(service *services.QueryService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
	)
	ps := &PoetryServer{service: service}

	s.AddResource(
		mcp.NewResource(
			statsURI,
			"Graph Stats",
			mcp.WithResourceDescription("知识图谱的三元组与诗词数量"),
			mcp.WithMIMEType("application/json"),
		),
		ps.handleStats,
	)

	s.AddTool(
		mcp.NewTool(
			"ask_poetry",
			mcp.WithDescription("用中文提问古诗词问题，例如 “静夜思的作者是谁”、“李白的诗”、“春晓的内容”。"),
			mcp.WithString("question", mcp.Required(), mcp.Description("问题原文")),
		),
		ps.handleAsk,
	)

	s.AddTool(
		mcp.NewTool(
			"list_intents",
			mcp.WithDescription("按匹配优先级列出支持的问题类型及其规则"),
		),
		ps.handleListIntents,
	)

	s.AddTool(
		mcp.NewTool(
			"suggest_titles",
			mcp.WithDescription("根据输入推荐语料中相近的诗词标题"),
			mcp.WithString("query", mcp.Required(), mcp.Description("标题或其片段")),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("最多返回条数（默认 %d）", qa.DefaultSuggestLimit))),
		),
		ps.handleSuggest,
	)

	return s
}

// Run 在标准输入输出上运行 MCP 服务
func Run(service *services.QueryService, version string) error {
	return server.ServeStdio(NewServer(service, version))
}

func (ps *PoetryServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	question, ok := args["question"].(string)
	if !ok {
		return mcp.NewToolResultError("question argument required"), nil
	}

	answer := ps.service.Query(ctx, question)
	return jsonResult(answer)
}

func (ps *PoetryServer) handleListIntents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(ps.service.Intents())
}

func (ps *PoetryServer) handleSuggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query argument required"), nil
	}

	limit := qa.DefaultSuggestLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	suggestions, err := ps.service.SuggestTitles(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("suggest failed: %v", err)), nil
	}
	return jsonResult(suggestions)
}

func (ps *PoetryServer) handleStats(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := ps.service.Stats(ctx)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
