package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
)

func (a *API) registerCheckLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("check-logs"))

	if err := g.GET("/check-logs", a.listCheckLogs,
		forge.WithSummary("Query check logs"),
		forge.WithDescription("Returns recorded authorization decisions, newest first."),
		forge.WithOperationID("listCheckLogs"),
		forge.WithRequestSchema(ListCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check log list", ListResponse[*checklog.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/check-logs/:id", a.getCheckLog,
		forge.WithSummary("Get check log"),
		forge.WithOperationID("getCheckLog"),
		forge.WithResponseSchema(http.StatusOK, "Check log", checklog.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/check-logs", a.purgeCheckLogs,
		forge.WithSummary("Purge check logs"),
		forge.WithDescription("Deletes the tenant's recorded decisions older than the cutoff."),
		forge.WithOperationID("purgeCheckLogs"),
		forge.WithRequestSchema(PurgeCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listCheckLogs(ctx forge.Context, req *ListCheckLogsRequest) (*ListResponse[*checklog.Entry], error) {
	filter := checklog.QueryFilter{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Decision:     req.Decision,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}

	var err error
	if filter.After, err = parseTime("after", req.After); err != nil {
		return nil, err
	}
	if filter.Before, err = parseTime("before", req.Before); err != nil {
		return nil, err
	}

	logs, total, err := a.eng.Decisions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*checklog.Entry]{Items: logs, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getCheckLog(ctx forge.Context, _ *CheckLogRequest) (*checklog.Entry, error) {
	logID, err := id.ParseCheckLogID(ctx.Param("id"))
	if err != nil {
		return nil, forge.BadRequest("invalid check log id")
	}

	entry, err := a.eng.Decision(ctx.Context(), logID)
	if err != nil {
		return nil, mapError(err)
	}

	return entry, ctx.JSON(http.StatusOK, entry)
}

func (a *API) purgeCheckLogs(ctx forge.Context, req *PurgeCheckLogsRequest) (*PurgeResponse, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}
	before, err := parseTime("before", req.Before)
	if err != nil {
		return nil, err
	}

	n, err := a.eng.PurgeDecisions(ctx.Context(), *before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Deleted: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}
