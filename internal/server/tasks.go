package server

import (
	"context"
	"net/http"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
	"kanmind/internal/kanban"

	"github.com/gin-gonic/gin"
)

type taskLister func(ctx context.Context, actor string) ([]kanban.TaskView, error)

func (api *API) writeTasks(ctx *gin.Context, list taskLister) {
	views, err := list(ctx.Request.Context(), actorFrom(ctx))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toTaskResponses(views))
}

func (api *API) listTasks(ctx *gin.Context) {
	api.writeTasks(ctx, api.svc.ListTasks)
}

func (api *API) listAssignedTasks(ctx *gin.Context) {
	api.writeTasks(ctx, api.svc.ListAssignedTasks)
}

func (api *API) listReviewingTasks(ctx *gin.Context) {
	api.writeTasks(ctx, api.svc.ListReviewingTasks)
}

func dateValue(o optional[models.Date]) models.Date {
	if o.Value == nil {
		return models.Date{}
	}
	return *o.Value
}

func (api *API) createTask(ctx *gin.Context) {
	var req createTaskRequest
	if !api.bind(ctx, &req) {
		return
	}
	view, err := api.svc.CreateTask(ctx.Request.Context(), actorFrom(ctx), kanban.TaskInput{
		BoardID:     req.Board,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID.Value,
		ReviewerID:  req.ReviewerID.Value,
		DueDate:     dateValue(req.DueDate),
	})
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, toTaskResponse(view))
}

func (api *API) getTask(ctx *gin.Context) {
	view, err := api.svc.GetTask(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toTaskResponse(view))
}

func (api *API) patchTask(ctx *gin.Context) {
	api.updateTask(ctx, false)
}

func (api *API) putTask(ctx *gin.Context) {
	api.updateTask(ctx, true)
}

// updateTask handles PATCH and PUT. Fields outside the mutable set, such
// as board, are ignored.
func (api *API) updateTask(ctx *gin.Context, full bool) {
	var req updateTaskRequest
	if !api.bind(ctx, &req) {
		return
	}
	if full {
		v := &errors.ValidationError{}
		if req.Title == nil {
			v.Add("title", msgRequired)
		}
		if req.Status == nil {
			v.Add("status", msgRequired)
		}
		if req.Priority == nil {
			v.Add("priority", msgRequired)
		}
		if !req.DueDate.Set {
			v.Add("due_date", msgRequired)
		}
		if err := v.OrNil(); err != nil {
			api.writeError(ctx, err)
			return
		}
	}

	patch := kanban.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    kanban.Ref{Set: req.AssigneeID.Set, ID: req.AssigneeID.Value},
		Reviewer:    kanban.Ref{Set: req.ReviewerID.Set, ID: req.ReviewerID.Value},
	}
	if req.DueDate.Set {
		due := dateValue(req.DueDate)
		patch.DueDate = &due
	}

	view, err := api.svc.UpdateTask(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID"), patch)
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toTaskFields(view))
}

func (api *API) deleteTask(ctx *gin.Context) {
	if err := api.svc.DeleteTask(ctx.Request.Context(), actorFrom(ctx), ctx.Param("taskID")); err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
