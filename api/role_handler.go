package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a custom role, optionally granting permissions."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:slug", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns details of a specific role."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:slug", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Updates the name, description and metadata of a custom role."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:slug", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes a custom role and its assignments."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists roles with optional filters."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", ListResponse[*role.Role]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:slug/permissions", a.rolePermissions,
		forge.WithSummary("List role permissions"),
		forge.WithDescription("Returns the permissions granted to a role."),
		forge.WithOperationID("listRolePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permission list", []*permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:slug/permissions/:permission", a.grantPermission,
		forge.WithSummary("Grant permission"),
		forge.WithDescription("Grants a permission to a role. Granting twice is a no-op."),
		forge.WithOperationID("grantPermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/roles/:slug/permissions/:permission", a.revokePermission,
		forge.WithSummary("Revoke permission"),
		forge.WithDescription("Revokes a permission from a role."),
		forge.WithOperationID("revokePermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}

	r := &role.Role{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := a.eng.CreateRole(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}
	for _, slug := range req.Permissions {
		if err := a.eng.GrantPermission(ctx.Context(), r.Slug, slug); err != nil {
			return nil, grantError(err)
		}
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*role.Role, error) {
	r, err := a.eng.FindRole(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	if err := a.validateBody(req); err != nil {
		return nil, err
	}

	cur, err := a.eng.FindRole(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return nil, mapError(err)
	}
	if req.Name != "" {
		cur.Name = req.Name
	}
	if req.Description != "" {
		cur.Description = req.Description
	}
	if req.Metadata != nil {
		cur.Metadata = req.Metadata
	}

	if err := a.eng.UpdateRole(ctx.Context(), cur); err != nil {
		return nil, mapError(err)
	}

	return cur, ctx.JSON(http.StatusOK, cur)
}

func (a *API) deleteRole(ctx forge.Context, _ *GetRoleRequest) (*struct{}, error) {
	if err := a.eng.DeleteRole(ctx.Context(), ctx.Param("slug")); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*ListResponse[*role.Role], error) {
	filter := role.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	switch req.System {
	case "":
	case "true", "false":
		system := req.System == "true"
		filter.IsSystem = &system
	default:
		return nil, forge.BadRequest("system must be true or false")
	}

	roles, total, err := a.eng.ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*role.Role]{Items: roles, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) rolePermissions(ctx forge.Context, _ *GetRoleRequest) ([]*permission.Permission, error) {
	perms, err := a.eng.RolePermissions(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return nil, mapError(err)
	}

	return perms, ctx.JSON(http.StatusOK, perms)
}

func (a *API) grantPermission(ctx forge.Context, _ *GrantRequest) (*struct{}, error) {
	if err := a.eng.GrantPermission(ctx.Context(), ctx.Param("slug"), ctx.Param("permission")); err != nil {
		return nil, grantError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) revokePermission(ctx forge.Context, _ *GrantRequest) (*struct{}, error) {
	if err := a.eng.RevokePermission(ctx.Context(), ctx.Param("slug"), ctx.Param("permission")); err != nil {
		return nil, grantError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
