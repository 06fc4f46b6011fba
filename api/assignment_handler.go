package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/scope"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/assignments", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a role to a user globally or at a team or project. Assigning twice is a no-op."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/assignments/remove", a.removeRole,
		forge.WithSummary("Remove role"),
		forge.WithDescription("Removes the assignment at exactly the given scope."),
		forge.WithOperationID("removeRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/assignments", a.listAssignments,
		forge.WithSummary("List assignments"),
		forge.WithOperationID("listAssignments"),
		forge.WithRequestSchema(ListAssignmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", ListResponse[*assignment.Assignment]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/assignments/:id", a.getAssignment,
		forge.WithSummary("Get assignment"),
		forge.WithOperationID("getAssignment"),
		forge.WithResponseSchema(http.StatusOK, "Assignment", AssignmentResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/assignments/:id", a.deleteAssignment,
		forge.WithSummary("Delete assignment"),
		forge.WithDescription("Removes one assignment by ID."),
		forge.WithOperationID("deleteAssignment"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId/assignments", a.userAssignments,
		forge.WithSummary("List user assignments"),
		forge.WithDescription("Returns every role assignment of a user."),
		forge.WithOperationID("listUserAssignments"),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", []*assignment.Assignment{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*struct{}, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}
	sc, err := parseScope(req.ScopeType, req.ScopeID)
	if err != nil {
		return nil, err
	}

	if err := a.eng.AssignRole(ctx.Context(), req.UserID, req.Role, sc); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) removeRole(ctx forge.Context, req *AssignRoleRequest) (*struct{}, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}
	sc, err := parseScope(req.ScopeType, req.ScopeID)
	if err != nil {
		return nil, err
	}

	if err := a.eng.RemoveRole(ctx.Context(), req.UserID, req.Role, sc); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listAssignments(ctx forge.Context, req *ListAssignmentsRequest) (*ListResponse[*assignment.Assignment], error) {
	filter := assignment.ListFilter{
		UserID: req.UserID,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	if req.Role != "" {
		r, err := a.eng.FindRole(ctx.Context(), req.Role)
		if err != nil {
			return nil, mapError(err)
		}
		filter.RoleID = &r.ID
	}

	switch req.ScopeType {
	case "":
	case "global":
		sc := scope.Global()
		filter.Scope = &sc
	default:
		sc, err := parseScope(req.ScopeType, req.ScopeID)
		if err != nil {
			return nil, err
		}
		filter.Scope = &sc
	}

	rows, total, err := a.eng.ListAssignments(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*assignment.Assignment]{Items: rows, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) userAssignments(ctx forge.Context, _ *UserAssignmentsRequest) ([]*assignment.Assignment, error) {
	rows, err := a.eng.UserAssignments(ctx.Context(), ctx.Param("userId"))
	if err != nil {
		return nil, mapError(err)
	}

	return rows, ctx.JSON(http.StatusOK, rows)
}

func (a *API) getAssignment(ctx forge.Context, _ *AssignmentRequest) (*AssignmentResponse, error) {
	assID, err := id.ParseAssignmentID(ctx.Param("id"))
	if err != nil {
		return nil, forge.BadRequest("invalid assignment id")
	}

	row, r, err := a.eng.Assignment(ctx.Context(), assID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &AssignmentResponse{Assignment: row, Role: r.Slug}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) deleteAssignment(ctx forge.Context, _ *AssignmentRequest) (*struct{}, error) {
	assID, err := id.ParseAssignmentID(ctx.Param("id"))
	if err != nil {
		return nil, forge.BadRequest("invalid assignment id")
	}

	if err := a.eng.RemoveAssignment(ctx.Context(), assID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
