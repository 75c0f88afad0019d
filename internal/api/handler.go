package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/subtitly/teams-service/internal/auth"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/service"
	"github.com/subtitly/teams-service/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	teams    *service.TeamService
	members  *service.MemberService
	invites  *service.InviteService
	projects *service.ProjectService
	reports  *service.ReportService

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTeamService(s *service.TeamService) *Handler {
	h.teams = s
	return h
}

func (h *Handler) WithMemberService(s *service.MemberService) *Handler {
	h.members = s
	return h
}

func (h *Handler) WithInviteService(s *service.InviteService) *Handler {
	h.invites = s
	return h
}

func (h *Handler) WithProjectService(s *service.ProjectService) *Handler {
	h.projects = s
	return h
}

func (h *Handler) WithReportService(s *service.ReportService) *Handler {
	h.reports = s
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.healthChecker.HealthCheck())

	userSecurity := e.Group("", AuthMiddleware(auth.TokenTypeUser, auth.TokenTypeAdmin))

	userSecurity.GET("/teams", h.ListTeams)
	userSecurity.POST("/teams", h.CreateTeam)
	userSecurity.GET("/teams/:slug", h.GetTeam)
	userSecurity.PUT("/teams/:slug", h.UpdateTeam)
	userSecurity.DELETE("/teams/:slug", h.DeleteTeam)

	userSecurity.GET("/teams/:slug/members", h.ListMembers)
	userSecurity.POST("/teams/:slug/members", h.AddMember)
	userSecurity.GET("/teams/:slug/members/:username", h.GetMember)
	userSecurity.PUT("/teams/:slug/members/:username", h.ChangeRole)
	userSecurity.DELETE("/teams/:slug/members/:username", h.RemoveMember)

	userSecurity.POST("/teams/:slug/safe-members", h.InviteMember)

	userSecurity.GET("/teams/:slug/projects", h.ListProjects)
	userSecurity.POST("/teams/:slug/projects", h.CreateProject)
	userSecurity.GET("/teams/:slug/projects/:projectslug", h.GetProject)
	userSecurity.PUT("/teams/:slug/projects/:projectslug", h.UpdateProject)
	userSecurity.DELETE("/teams/:slug/projects/:projectslug", h.DeleteProject)

	adminSecurity := e.Group("/admin", AuthMiddleware(auth.TokenTypeAdmin))

	adminSecurity.GET("/invites", h.ListInvites)
	adminSecurity.GET("/tasks", h.ListTasks)
	adminSecurity.GET("/billing-records", h.ListBillingRecords)
}

func (h *Handler) ListTeams(e echo.Context) error {
	teams, err := h.teams.ListTeams(e.Request().Context(), currentUser(e))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, teams)
}

func (h *Handler) GetTeam(e echo.Context) error {
	team, err := h.teams.GetTeam(e.Request().Context(), e.Param("slug"))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, team)
}

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Slug             string `json:"slug" validate:"required"`
		Name             string `json:"name" validate:"required"`
		Description      string `json:"description"`
		IsVisible        bool   `json:"is_visible"`
		MembershipPolicy string `json:"membership_policy"`
		VideoPolicy      string `json:"video_policy"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating team", zap.String("team_slug", req.Slug))

	team, err := h.teams.CreateTeam(e.Request().Context(), currentUser(e), &service.TeamCreate{
		Slug:             req.Slug,
		Name:             req.Name,
		Description:      req.Description,
		IsVisible:        req.IsVisible,
		MembershipPolicy: req.MembershipPolicy,
		VideoPolicy:      req.VideoPolicy,
	})
	if err != nil {
		l.Error("failed to create team", zap.String("team_slug", req.Slug), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) UpdateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name             *string `json:"name"`
		Description      *string `json:"description"`
		IsVisible        *bool   `json:"is_visible"`
		MembershipPolicy *string `json:"membership_policy"`
		VideoPolicy      *string `json:"video_policy"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	team, err := h.teams.UpdateTeam(e.Request().Context(), currentUser(e), e.Param("slug"), &service.TeamUpdate{
		Name:             req.Name,
		Description:      req.Description,
		IsVisible:        req.IsVisible,
		MembershipPolicy: req.MembershipPolicy,
		VideoPolicy:      req.VideoPolicy,
	})
	if err != nil {
		l.Error("failed to update team", zap.String("team_slug", e.Param("slug")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) DeleteTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	if err := h.teams.DeleteTeam(e.Request().Context(), currentUser(e), e.Param("slug")); err != nil {
		l.Error("failed to delete team", zap.String("team_slug", e.Param("slug")), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMembers(e echo.Context) error {
	members, err := h.members.ListMembers(e.Request().Context(), currentUser(e), e.Param("slug"))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, members)
}

func (h *Handler) GetMember(e echo.Context) error {
	member, err := h.members.GetMember(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("username"))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, member)
}

func (h *Handler) AddMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member, err := h.members.AddMember(e.Request().Context(), currentUser(e), e.Param("slug"), req.Username, req.Role)
	if err != nil {
		l.Error("failed to add member",
			zap.String("team_slug", e.Param("slug")),
			zap.String("username", req.Username),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, member)
}

func (h *Handler) ChangeRole(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	// The username comes from the URL; a username field in the body is
	// accepted and ignored.
	var req struct {
		Username string `json:"username"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member, err := h.members.ChangeRole(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("username"), req.Role)
	if err != nil {
		l.Error("failed to change role",
			zap.String("team_slug", e.Param("slug")),
			zap.String("username", e.Param("username")),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, member)
}

func (h *Handler) RemoveMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	if err := h.members.RemoveMember(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("username")); err != nil {
		l.Error("failed to remove member",
			zap.String("team_slug", e.Param("slug")),
			zap.String("username", e.Param("username")),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) InviteMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"omitempty,email"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	invite, err := h.invites.InviteMember(e.Request().Context(), currentUser(e), e.Param("slug"), req.Username, req.Email, req.Role)
	if err != nil {
		l.Error("failed to invite member",
			zap.String("team_slug", e.Param("slug")),
			zap.String("username", req.Username),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	// 202: the membership does not exist yet, only a pending invitation.
	return e.JSON(http.StatusAccepted, invite)
}

func (h *Handler) ListProjects(e echo.Context) error {
	projects, err := h.projects.ListProjects(e.Request().Context(), currentUser(e), e.Param("slug"))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(e echo.Context) error {
	project, err := h.projects.GetProject(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("projectslug"))
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, project)
}

func (h *Handler) CreateProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Slug            string `json:"slug" validate:"required"`
		Name            string `json:"name" validate:"required"`
		Description     string `json:"description"`
		Guidelines      string `json:"guidelines"`
		WorkflowEnabled bool   `json:"workflow_enabled"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	project, err := h.projects.CreateProject(e.Request().Context(), currentUser(e), e.Param("slug"), &service.ProjectCreate{
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		Guidelines:      req.Guidelines,
		WorkflowEnabled: req.WorkflowEnabled,
	})
	if err != nil {
		l.Error("failed to create project",
			zap.String("team_slug", e.Param("slug")),
			zap.String("project_slug", req.Slug),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, project)
}

func (h *Handler) UpdateProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name            *string `json:"name"`
		Description     *string `json:"description"`
		Guidelines      *string `json:"guidelines"`
		WorkflowEnabled *bool   `json:"workflow_enabled"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	project, err := h.projects.UpdateProject(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("projectslug"), &service.ProjectUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Guidelines:      req.Guidelines,
		WorkflowEnabled: req.WorkflowEnabled,
	})
	if err != nil {
		l.Error("failed to update project",
			zap.String("team_slug", e.Param("slug")),
			zap.String("project_slug", e.Param("projectslug")),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	if err := h.projects.DeleteProject(e.Request().Context(), currentUser(e), e.Param("slug"), e.Param("projectslug")); err != nil {
		l.Error("failed to delete project",
			zap.String("team_slug", e.Param("slug")),
			zap.String("project_slug", e.Param("projectslug")),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListInvites(e echo.Context) error {
	filter := &model.InviteFilter{
		TeamSlug: e.QueryParam("team"),
		Approved: queryBool(e, "approved"),
	}

	invites, err := h.reports.ListInvites(e.Request().Context(), filter)
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, invites)
}

func (h *Handler) ListTasks(e echo.Context) error {
	filter := &model.TaskFilter{
		TeamSlug: e.QueryParam("team"),
		Type:     e.QueryParam("type"),
		Deleted:  queryBool(e, "deleted"),
		Complete: queryBool(e, "complete"),
	}

	tasks, err := h.reports.ListTasks(e.Request().Context(), filter)
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListBillingRecords(e echo.Context) error {
	filter := &model.BillingRecordFilter{
		TeamSlug:   e.QueryParam("team"),
		Source:     e.QueryParam("source"),
		IsOriginal: queryBool(e, "is_original"),
	}

	records, err := h.reports.ListBillingRecords(e.Request().Context(), filter)
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, records)
}

func currentUser(e echo.Context) *model.User {
	claims := ClaimsFromEchoContext(e)
	if claims == nil {
		return &model.User{}
	}
	return &model.User{Username: claims.Username()}
}

func queryBool(e echo.Context, name string) *bool {
	raw := e.QueryParam(name)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodePermissionDenied:
		return e.JSON(http.StatusForbidden, response)
	case service.ErrorCodeTeamExists,
		service.ErrorCodeProjectExists,
		service.ErrorCodeAlreadyMember,
		service.ErrorCodeInvalidRole,
		service.ErrorCodeInvalidPolicy,
		service.ErrorCodeEmailRequired,
		service.ErrorCodeCannotRemoveOwner,
		service.ErrorCodeCannotRemoveSelf,
		service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
