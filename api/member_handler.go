package api

import (
	"context"
	"net/http"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

func (a *API) registerMemberRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("members"))

	for _, kind := range []scope.Kind{scope.KindTeam, scope.KindProject} {
		h := memberHandlers{api: a, kind: kind}
		base := "/" + string(kind) + "s/:id/members"
		name := string(kind)
		opName := "Team"
		if kind == scope.KindProject {
			opName = "Project"
		}

		if err := g.GET(base, h.list,
			forge.WithSummary("List "+name+" members"),
			forge.WithDescription("Returns the active roster of a "+name+"."),
			forge.WithOperationID("list"+opName+"Members"),
			forge.WithResponseSchema(http.StatusOK, "Member list", []*membership.Member{}),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}

		if err := g.POST(base, h.add,
			forge.WithSummary("Add "+name+" member"),
			forge.WithDescription("Adds or restores a member. Adding an active member is a no-op."),
			forge.WithOperationID("add"+opName+"Member"),
			forge.WithRequestSchema(AddMemberRequest{}),
			forge.WithResponseSchema(http.StatusOK, "Member", MemberResponse{}),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}

		if err := g.PUT(base+"/:userId", h.update,
			forge.WithSummary("Update "+name+" member"),
			forge.WithDescription("Changes the membership tag of an active member."),
			forge.WithOperationID("update"+opName+"Member"),
			forge.WithRequestSchema(UpdateMemberRequest{}),
			forge.WithNoContentResponse(),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}

		if err := g.DELETE(base+"/:userId", h.remove,
			forge.WithSummary("Remove "+name+" member"),
			forge.WithDescription("Soft-deletes a member. The owner cannot be removed."),
			forge.WithOperationID("remove"+opName+"Member"),
			forge.WithNoContentResponse(),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}
	}
	return nil
}

// memberHandlers serves the roster routes of one container kind.
type memberHandlers struct {
	api  *API
	kind scope.Kind
}

// container resolves the roster's team or project. Changes need the
// host's resolver so that owner and capacity are known.
func (h memberHandlers) container(ctx context.Context, fctx forge.Context, change bool) (resource.Container, error) {
	sc, err := parseScope(string(h.kind), fctx.Param("id"))
	if err != nil {
		return nil, err
	}
	resolve := h.api.view
	if change {
		resolve = h.api.owned
	}
	res, err := resolve(ctx, sc)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

func (h memberHandlers) list(ctx forge.Context, _ *ListMembersRequest) ([]*membership.Member, error) {
	res, err := h.container(ctx.Context(), ctx, false)
	if err != nil {
		return nil, err
	}

	members, err := h.api.eng.ListMembers(ctx.Context(), res)
	if err != nil {
		return nil, mapError(err)
	}

	return members, ctx.JSON(http.StatusOK, members)
}

func (h memberHandlers) add(ctx forge.Context, req *AddMemberRequest) (*MemberResponse, error) {
	if err := h.api.validateBody(req); err != nil {
		return nil, err
	}
	res, err := h.container(ctx.Context(), ctx, true)
	if err != nil {
		return nil, err
	}

	tag, err := membership.ParseTag(req.Role)
	if err != nil {
		return nil, mapError(err)
	}
	added, err := h.api.eng.AddMember(ctx.Context(), res, req.UserID, tag)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &MemberResponse{UserID: req.UserID, Role: string(tag), Added: added}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (h memberHandlers) update(ctx forge.Context, req *UpdateMemberRequest) (*struct{}, error) {
	if err := h.api.validateBody(req); err != nil {
		return nil, err
	}
	res, err := h.container(ctx.Context(), ctx, true)
	if err != nil {
		return nil, err
	}

	if err := h.api.eng.UpdateMemberRole(ctx.Context(), res, ctx.Param("userId"), membership.Tag(req.Role)); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (h memberHandlers) remove(ctx forge.Context, _ *MemberRequest) (*struct{}, error) {
	res, err := h.container(ctx.Context(), ctx, true)
	if err != nil {
		return nil, err
	}

	if err := h.api.eng.RemoveMember(ctx.Context(), res, ctx.Param("userId")); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
