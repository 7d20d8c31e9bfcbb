package server

import (
	"net/http"

	"kanmind/internal/domain/models"
	"kanmind/internal/kanban"

	"github.com/gin-gonic/gin"
)

// issue signs a token for user and also sets it as an HttpOnly cookie for
// browser clients.
func (api *API) issue(ctx *gin.Context, status int, user *models.User) {
	token, err := api.tokens.Issue(user.ID, user.Email)
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(tokenCookie, token, int(api.tokens.TTL().Seconds()), "/", "", false, true)
	ctx.JSON(status, authResponse{
		Token:    token,
		Fullname: user.Fullname,
		Email:    user.Email,
		UserID:   user.ID,
	})
}

func (api *API) login(ctx *gin.Context) {
	var req loginRequest
	if !api.bind(ctx, &req) {
		return
	}
	user, err := api.svc.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	api.issue(ctx, http.StatusOK, user)
}

func (api *API) register(ctx *gin.Context) {
	var req registerRequest
	if !api.bind(ctx, &req) {
		return
	}
	user, err := api.svc.Register(ctx.Request.Context(), kanban.RegisterInput{
		Fullname:         req.Fullname,
		Email:            req.Email,
		Password:         req.Password,
		RepeatedPassword: req.RepeatedPassword,
	})
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	api.issue(ctx, http.StatusCreated, user)
}

func (api *API) emailCheck(ctx *gin.Context) {
	user, err := api.svc.LookupEmail(ctx.Request.Context(), actorFrom(ctx), ctx.Query("email"))
	if err != nil {
		api.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toUserSummary(user))
}
