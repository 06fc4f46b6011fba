package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithDescription("Lists the permission catalog, ordered by group and slug."),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission list", ListResponse[*permission.Permission]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/permissions/:slug", a.getPermission,
		forge.WithSummary("Get permission"),
		forge.WithDescription("Returns a catalog entry by slug."),
		forge.WithOperationID("getPermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listPermissions(ctx forge.Context, req *ListPermissionsRequest) (*ListResponse[*permission.Permission], error) {
	filter := permission.ListFilter{
		Group:  req.Group,
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	perms, total, err := a.eng.ListPermissions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*permission.Permission]{Items: perms, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getPermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	p, err := a.eng.FindPermission(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		// A lookup by slug is a plain 404, unlike a check against a
		// missing slug.
		if errors.Is(err, taskguard.ErrPermissionNotFound) {
			return nil, forge.NotFound(err.Error())
		}
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}
