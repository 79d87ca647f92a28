package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
	"github.com/ahmednader515/answer-guide-platform/storage/object"
)

type courseApi struct {
	svc       *course.Service
	accessSvc *access.Service
	media     *object.MediaStore
	conf      *core.Config
	logger    core.Logger
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:       deps.CourseSvc,
		accessSvc: deps.AccessSvc,
		media:     deps.Media,
		conf:      deps.Conf,
		logger:    deps.Logger,
	}

	cg := g.Group("/courses")

	// anonymous-friendly endpoints; a bearer token enriches the response
	cg.GET("", api.query)
	cg.GET("/:courseID/content", api.content)
	cg.GET("/:courseID/chapters/:chapterID/access", api.chapterAccess)

	// authed endpoints
	ag := cg.Group("", jwt)
	ag.PUT("/:courseID/chapters/:chapterID/progress", api.markProgress)
	ag.GET("/:courseID/chapters/:chapterID/video", api.chapterVideo)

	// teacher endpoints
	tg := g.Group("/teacher", jwt, staffMiddleware())
	tg.GET("/quiz-results", api.quizResults)
}

// Handlers

// query lists published courses. The storefront must never 500 on this
// route, so errors degrade to an empty list.
func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.PublishedCourses(ctx.Request().Context())
	if err != nil {
		api.logger.Error(fmt.Sprintf("querying courses: %v", err), err)
		return ctx.JSON(http.StatusOK, []course.CourseSummary{})
	}
	if courses == nil {
		courses = []course.CourseSummary{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) content(ctx echo.Context) error {
	userID := optionalContextUserID(ctx, api.conf)

	items, err := api.accessSvc.CourseContent(ctx.Request().Context(), userID, ctx.Param("courseID"))
	if err != nil {
		return errors.Wrap(err, "listing course content")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *courseApi) chapterAccess(ctx echo.Context) error {
	userID := optionalContextUserID(ctx, api.conf)

	decision, err := api.accessSvc.CheckChapterAccess(
		ctx.Request().Context(), userID, ctx.Param("courseID"), ctx.Param("chapterID"))
	if err != nil {
		return errors.Wrap(err, "checking chapter access")
	}
	return ctx.JSON(http.StatusOK, decision)
}

func (api *courseApi) markProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ProgressRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressRequest")
	}

	courseID, chapterID := ctx.Param("courseID"), ctx.Param("chapterID")

	// completing a chapter requires resolved access to it
	decision, err := api.accessSvc.CheckChapterAccess(ctx.Request().Context(), claims.Subject, courseID, chapterID)
	if err != nil {
		return errors.Wrap(err, "checking chapter access")
	}
	if !decision.Granted {
		return errHttpForbidden
	}

	progress, err := api.svc.MarkChapterComplete(ctx.Request().Context(), claims.Subject, courseID, chapterID, data.IsCompleted)
	if err != nil {
		return errors.Wrap(err, "marking progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *courseApi) chapterVideo(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courseID, chapterID := ctx.Param("courseID"), ctx.Param("chapterID")

	decision, err := api.accessSvc.CheckChapterAccess(ctx.Request().Context(), claims.Subject, courseID, chapterID)
	if err != nil {
		return errors.Wrap(err, "checking chapter access")
	}
	if !decision.Granted {
		return errHttpForbidden
	}

	ch, err := api.svc.GetPublishedChapter(ctx.Request().Context(), courseID, chapterID)
	if err != nil {
		return errors.Wrap(err, "finding chapter")
	}
	if !ch.VideoKey.Valid || ch.VideoKey.String == "" {
		return errHttpNotFound
	}

	url, err := api.media.PresignedGetURL(ctx.Request().Context(), ch.VideoKey.String, object.DefaultURLExpiry)
	if err != nil {
		return errors.Wrap(err, "presigning video URL")
	}
	return ctx.JSON(http.StatusOK, VideoResponse{URL: url})
}

// quizResults lists results of quizzes on the acting teacher's courses.
// Admins see their own courses' results the same way.
func (api *courseApi) quizResults(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var ownerID string
	switch claims.Role {
	case user.RoleAdmin, user.RoleTeacher:
		ownerID = claims.Subject
	case user.RoleStudent:
		return errHttpForbidden
	default:
		return errHttpForbidden
	}

	page := BindPagination(ctx)
	rows, total, err := api.svc.QuizResults(ctx.Request().Context(), ownerID, ctx.QueryParam("quiz_id"), page)
	if err != nil {
		return errors.Wrap(err, "querying quiz results")
	}
	if rows == nil {
		rows = []course.QuizResultRow{}
	}
	return ctx.JSON(http.StatusOK, PaginatedResponse{Count: total, Results: rows})
}

type (
	ProgressRequest struct {
		IsCompleted bool `json:"is_completed"`
	}

	VideoResponse struct {
		URL string `json:"url"`
	}
)
