package server

import (
	"net/http"

	"kanmind/internal/domain/errors"
	"kanmind/internal/kanban"

	"github.com/gin-gonic/gin"
)

func (api *API) listBoards(ctx *gin.Context) {
	views, err := api.svc.ListBoards(ctx.Request.Context(), actorFrom(ctx))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	out := make([]boardResponse, 0, len(views))
	for i := range views {
		out = append(out, toBoardResponse(&views[i]))
	}
	ctx.JSON(http.StatusOK, out)
}

func (api *API) createBoard(ctx *gin.Context) {
	var req createBoardRequest
	if !api.bind(ctx, &req) {
		return
	}
	view, err := api.svc.CreateBoard(ctx.Request.Context(), actorFrom(ctx), kanban.BoardInput{
		Title:     req.Title,
		MemberIDs: req.Members,
	})
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, toBoardResponse(view))
}

func (api *API) getBoard(ctx *gin.Context) {
	view, err := api.svc.GetBoard(ctx.Request.Context(), actorFrom(ctx), ctx.Param("boardID"))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toBoardDetailResponse(view))
}

func (api *API) patchBoard(ctx *gin.Context) {
	api.updateBoard(ctx, false)
}

func (api *API) putBoard(ctx *gin.Context) {
	api.updateBoard(ctx, true)
}

// updateBoard handles PATCH and PUT. A full update must carry the title.
func (api *API) updateBoard(ctx *gin.Context, full bool) {
	var req updateBoardRequest
	if !api.bind(ctx, &req) {
		return
	}
	if full && req.Title == nil {
		api.writeError(ctx, errors.NewValidationError("title", msgRequired))
		return
	}
	view, err := api.svc.UpdateBoard(ctx.Request.Context(), actorFrom(ctx), ctx.Param("boardID"), kanban.BoardPatch{
		Title:     req.Title,
		MemberIDs: req.Members,
	})
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toBoardUpdateResponse(view))
}

func (api *API) deleteBoard(ctx *gin.Context) {
	if err := api.svc.DeleteBoard(ctx.Request.Context(), actorFrom(ctx), ctx.Param("boardID")); err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
