package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (api *API) listComments(ctx *gin.Context) {
	views, err := api.svc.ListComments(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toCommentResponses(views))
}

func (api *API) createComment(ctx *gin.Context) {
	var req createCommentRequest
	if !api.bind(ctx, &req) {
		return
	}
	view, err := api.svc.CreateComment(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"), req.Content)
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, toCommentResponse(view))
}

func (api *API) getComment(ctx *gin.Context) {
	view, err := api.svc.GetComment(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"), ctx.Param("commentID"))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toCommentResponse(view))
}

func (api *API) deleteComment(ctx *gin.Context) {
	if err := api.svc.DeleteComment(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"), ctx.Param("commentID")); err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
