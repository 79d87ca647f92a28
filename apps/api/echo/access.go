package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/user"
)

type accessApi struct {
	svc     *access.Service
	userSvc *user.Service
	conf    *core.Config
}

func registerAccessAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accessApi{svc: deps.AccessSvc, userSvc: deps.UserSvc, conf: deps.Conf}

	adm := g.Group("/admin/users/:userID", jwt, adminMiddleware())
	adm.POST("/chapter-access", api.grant)
	adm.DELETE("/chapter-access", api.revoke)
	adm.GET("/chapter-access", api.listGrants)
	adm.POST("/purchases", api.recordPurchase)

	// teachers manage access on their own courses only
	tg := g.Group("/teacher/users/:userID", jwt, staffMiddleware())
	tg.POST("/chapter-access", api.grant)
	tg.DELETE("/chapter-access", api.revoke)
	tg.GET("/chapter-access", api.listGrants)
}

// Handlers

func (api *accessApi) grant(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data GrantRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrantRequest")
	}
	if data.ChapterID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "chapter_id", Error: "this field is required"})
	}

	grant, err := api.svc.Grant(ctx.Request().Context(), actor, ctx.Param("userID"), data.ChapterID)
	if err != nil {
		return errors.Wrap(err, "granting chapter access")
	}
	return ctx.JSON(http.StatusCreated, grant)
}

func (api *accessApi) revoke(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	chapterID := ctx.QueryParam("chapter_id")
	if chapterID == "" {
		var data GrantRequest
		if err := ctx.Bind(&data); err == nil {
			chapterID = data.ChapterID
		}
	}
	if chapterID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "chapter_id", Error: "this field is required"})
	}

	if err := api.svc.Revoke(ctx.Request().Context(), actor, ctx.Param("userID"), chapterID); err != nil {
		return errors.Wrap(err, "revoking chapter access")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accessApi) listGrants(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ids, err := api.svc.ListGrants(ctx.Request().Context(), actor, ctx.Param("userID"), ctx.QueryParam("course_id"))
	if err != nil {
		return errors.Wrap(err, "listing chapter grants")
	}
	return ctx.JSON(http.StatusOK, GrantListResponse{ChapterIDs: ids})
}

func (api *accessApi) recordPurchase(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data PurchaseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PurchaseRequest")
	}
	if data.CourseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}

	purchase, err := api.svc.RecordPurchase(ctx.Request().Context(), actor, ctx.Param("userID"), data.CourseID)
	if err != nil {
		return errors.Wrap(err, "recording purchase")
	}
	return ctx.JSON(http.StatusCreated, purchase)
}

type (
	GrantRequest struct {
		ChapterID string `json:"chapter_id"`
	}

	GrantListResponse struct {
		ChapterIDs []string `json:"chapter_ids"`
	}

	PurchaseRequest struct {
		CourseID string `json:"course_id"`
	}
)
