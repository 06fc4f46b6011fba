package api

import (
	"context"
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates a resource rule or a scoped permission lookup."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch authorization check"),
		forge.WithDescription("Evaluates up to 100 checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	resp, err := a.evaluate(ctx.Context(), req)
	if err != nil {
		return nil, err
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	resp, err := a.evaluate(ctx.Context(), req)
	if err != nil {
		return nil, err
	}
	if !resp.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}

	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		resp, err := a.evaluate(ctx.Context(), &req.Checks[i])
		if err != nil {
			return nil, err
		}
		results[i] = *resp
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) evaluate(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}
	cr, err := a.toCheckRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := a.eng.Check(ctx, cr)
	if err != nil {
		return nil, mapError(err)
	}
	return toCheckResponse(result), nil
}

func (a *API) toCheckRequest(ctx context.Context, r *CheckRequest) (*taskguard.CheckRequest, error) {
	cr := &taskguard.CheckRequest{
		User:       taskguard.User{ID: r.UserID, IsOwner: r.IsOwner, IsActive: !r.Inactive},
		Action:     taskguard.Action(r.Action),
		Permission: r.Permission,
	}

	if r.ResourceType != "" {
		if r.Action == "" {
			return nil, forge.BadRequest("action is required for resource checks")
		}
		sc, err := parseScope(r.ResourceType, r.ResourceID)
		if err != nil {
			return nil, err
		}
		res, err := a.view(ctx, sc)
		if err != nil {
			return nil, mapError(err)
		}
		cr.Resource = res
		return cr, nil
	}

	if r.Permission == "" && r.Action == "" {
		return nil, forge.BadRequest("permission or action is required")
	}
	sc, err := parseScope(r.ScopeType, r.ScopeID)
	if err != nil {
		return nil, err
	}
	cr.Scope = sc
	return cr, nil
}

func toCheckResponse(r *taskguard.CheckResult) *CheckResponse {
	resp := &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
	}
	for _, m := range r.MatchedBy {
		resp.MatchedBy = append(resp.MatchedBy, MatchInfo{
			Source: m.Source,
			Rule:   m.Rule,
			Detail: m.Detail,
		})
	}
	return resp
}
