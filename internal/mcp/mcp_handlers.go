package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/commitclock/core"
	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	client  contract.GitClient
}

// configFor clones the base config and applies the request arguments.
func (h *toolHandler) configFor(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	overrides := contract.RunOverrides{
		StartYear: request.GetInt("start_year", 0),
		EndYear:   request.GetInt("end_year", 0),
		Interval:  request.GetInt("interval", 0),
		Policy:    request.GetString("policy", ""),
		Binning:   request.GetString("binning", ""),
	}
	for _, p := range strings.Split(request.GetString("repo_paths", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			overrides.RepoPaths = append(overrides.RepoPaths, p)
		}
	}
	if err := contract.RevalidateRun(ctx, cfg, h.client, overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

// jsonResult marshals data into a text tool result.
func jsonResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetBins(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.RunBins(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("binning failed: %v", err)), nil
	}
	if !request.GetBool("per_repo", false) {
		result.Repos = nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetMostActiveSlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := schema.SlotKind(request.GetString("kind", ""))
	binning, ok := map[schema.SlotKind]schema.BinningMode{
		schema.DaySlot:  schema.DayOfWeekBinning,
		schema.HourSlot: schema.HourOfDayBinning,
	}[kind]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid kind %q. must be day or hour", kind)), nil
	}

	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.Binning = binning

	result, err := core.RunBins(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("binning failed: %v", err)), nil
	}

	var peaks []schema.SlotPeak
	if table := result.CombinedTable(kind); table != nil {
		peaks = append(peaks, bins.Peaks(schema.CombinedScope, table, result.Intervals)...)
	}
	for _, rb := range result.Repos {
		if table := rb.Table(kind); table != nil {
			peaks = append(peaks, bins.Peaks(rb.Repo, table, result.Intervals)...)
		}
	}
	return jsonResult(peaks), nil
}

func (h *toolHandler) handleGetTimezones(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.TimezoneDistribution(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("timezone analysis failed: %v", err)), nil
	}
	return jsonResult(result), nil
}
