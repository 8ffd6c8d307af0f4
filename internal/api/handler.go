package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/matejak/teap/internal/auth"
	"github.com/matejak/teap/internal/directory"
	"github.com/matejak/teap/internal/mail"
	"github.com/matejak/teap/internal/metrics"
	"github.com/matejak/teap/internal/model"
	"github.com/matejak/teap/internal/service"
	"github.com/matejak/teap/pkg/logger"
)

type Handler struct {
	user      *service.UserService
	hierarchy *service.HierarchyService
	reconcile *service.ReconcileService
	folder    *service.FolderService

	mailer mail.Mailer

	resetSecret string
	resetExpiry time.Duration

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

func (h *Handler) WithUserService(user *service.UserService) *Handler {
	h.user = user
	return h
}

func (h *Handler) WithHierarchyService(hierarchy *service.HierarchyService) *Handler {
	h.hierarchy = hierarchy
	return h
}

func (h *Handler) WithReconcileService(reconcile *service.ReconcileService) *Handler {
	h.reconcile = reconcile
	return h
}

func (h *Handler) WithFolderService(folder *service.FolderService) *Handler {
	h.folder = folder
	return h
}

func (h *Handler) WithMailer(mailer mail.Mailer) *Handler {
	h.mailer = mailer
	return h
}

func (h *Handler) WithPasswordReset(secret string, expiry time.Duration) *Handler {
	h.resetSecret = secret
	h.resetExpiry = expiry
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.healthChecker.HealthCheck())
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/users", h.ProvisionUser)
	e.GET("/users/:uid", h.GetUser)
	e.DELETE("/users/:uid", h.RemoveUser)
	e.POST("/users/:uid/teams", h.AddUserToTeam)

	e.POST("/franchises", h.CreateFranchise)
	e.POST("/franchises/:name/teams", h.EnsureFranchiseTeams)
	e.POST("/divisions", h.CreateDivision)
	e.POST("/divisions/:name/teams", h.EnsureDivisionTeams)
	e.GET("/divisions", h.GetDivisionReport)
	e.GET("/teams/:name", h.GetTeam)
	e.GET("/consistency", h.CheckConsistency)

	e.POST("/password-reset", h.RequestPasswordReset)
	e.POST("/password-reset/confirm", h.ConfirmPasswordReset)
}

func (h *Handler) ProvisionUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		UID       string   `json:"uid" validate:"required"`
		GivenName string   `json:"given_name" validate:"required"`
		Surname   string   `json:"surname" validate:"required"`
		Mail      string   `json:"mail" validate:"omitempty,email"`
		Password  string   `json:"password" validate:"required"`
		Teams     []string `json:"teams"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("provisioning user",
		zap.String("uid", req.UID),
		zap.Strings("teams", req.Teams))

	user := &model.User{
		UID:       req.UID,
		GivenName: req.GivenName,
		Surname:   req.Surname,
		Mail:      req.Mail,
		Teams:     req.Teams,
	}

	if err := h.user.ProvisionUser(e.Request().Context(), user, req.Password); err != nil {
		l.Error("failed to provision user", zap.String("uid", req.UID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, user)
}

func (h *Handler) GetUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	uid := e.Param("uid")

	l.Info("getting user", zap.String("uid", uid))

	user, err := h.user.GetUser(e.Request().Context(), uid)
	if err != nil {
		l.Error("failed to get user", zap.String("uid", uid), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, user)
}

func (h *Handler) RemoveUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	uid := e.Param("uid")

	l.Info("removing user", zap.String("uid", uid))

	if err := h.user.RemoveUser(e.Request().Context(), uid); err != nil {
		l.Error("failed to remove user", zap.String("uid", uid), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) AddUserToTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	uid := e.Param("uid")

	var req struct {
		Team string `json:"team" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("adding user to team", zap.String("uid", uid), zap.String("team", req.Team))

	if err := h.user.AddToTeam(e.Request().Context(), uid, req.Team); err != nil {
		l.Error("failed to add user to team",
			zap.String("uid", uid),
			zap.String("team", req.Team),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateFranchise(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		MachineName string `json:"machine_name" validate:"required"`
		DisplayName string `json:"display_name"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating franchise", zap.String("franchise", req.MachineName))

	summary, err := h.hierarchy.CreateFranchise(e.Request().Context(), req.MachineName, req.DisplayName)
	if err != nil && err.Code != service.ErrorCodePartialFailure {
		l.Error("failed to create franchise", zap.String("franchise", req.MachineName), zap.Any("error", err))
		return h.transportError(e, err)
	}

	if folderErr := h.folder.CreateFranchiseFolder(e.Request().Context(), req.MachineName); folderErr != nil {
		l.Error("failed to provision franchise folder",
			zap.String("franchise", req.MachineName),
			zap.Any("error", folderErr))
		return h.transportError(e, folderErr)
	}

	return h.derivationResponse(e, http.StatusCreated, summary, err)
}

func (h *Handler) EnsureFranchiseTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	name := e.Param("name")

	l.Info("ensuring franchise teams", zap.String("franchise", name))

	summary, err := h.hierarchy.EnsureFranchiseTeams(e.Request().Context(), name)
	if err != nil && err.Code != service.ErrorCodePartialFailure {
		l.Error("failed to ensure franchise teams", zap.String("franchise", name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return h.derivationResponse(e, http.StatusOK, summary, err)
}

func (h *Handler) CreateDivision(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		MachineName string `json:"machine_name" validate:"required"`
		DisplayName string `json:"display_name"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating division", zap.String("division", req.MachineName))

	summary, err := h.hierarchy.CreateDivision(e.Request().Context(), req.MachineName, req.DisplayName)
	if err != nil && err.Code != service.ErrorCodePartialFailure {
		l.Error("failed to create division", zap.String("division", req.MachineName), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return h.derivationResponse(e, http.StatusCreated, summary, err)
}

func (h *Handler) EnsureDivisionTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	name := e.Param("name")

	l.Info("ensuring division teams", zap.String("division", name))

	summary, err := h.hierarchy.EnsureDivisionTeams(e.Request().Context(), name)
	if err != nil && err.Code != service.ErrorCodePartialFailure {
		l.Error("failed to ensure division teams", zap.String("division", name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return h.derivationResponse(e, http.StatusOK, summary, err)
}

func (h *Handler) GetDivisionReport(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	l.Info("building division report")

	report, err := h.reconcile.DivisionReport(e.Request().Context())
	if err != nil {
		l.Error("failed to build division report", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, report)
}

func (h *Handler) GetTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	name := e.Param("name")

	l.Info("getting team", zap.String("team", name))

	team, pair, err := h.hierarchy.GetTeam(e.Request().Context(), name)
	if err != nil {
		l.Error("failed to get team", zap.String("team", name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	response := struct {
		Team       *model.Team           `json:"team"`
		OwningPair *directory.OwningPair `json:"owning_pair,omitempty"`
	}{Team: team, OwningPair: pair}

	return e.JSON(http.StatusOK, response)
}

func (h *Handler) CheckConsistency(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	l.Info("checking required directory objects")

	missing, err := h.reconcile.CheckSingletons(e.Request().Context())
	if err != nil {
		l.Error("failed to check required directory objects", zap.Any("error", err))
		return h.transportError(e, err)
	}

	response := struct {
		Missing []string `json:"missing"`
	}{Missing: missing}

	return e.JSON(http.StatusOK, response)
}

func (h *Handler) RequestPasswordReset(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		UID string `json:"uid" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("requesting password reset", zap.String("uid", req.UID))

	user, err := h.user.GetUser(e.Request().Context(), req.UID)
	if err != nil {
		l.Error("failed to get user", zap.String("uid", req.UID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	if user.Mail == "" {
		l.Warn("user has no mail address", zap.String("uid", req.UID))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "user has no mail address"))
	}

	token, tokenErr := auth.GenerateResetToken(h.resetSecret, user.UID, h.resetExpiry)
	if tokenErr != nil {
		l.Error("failed to issue reset token", zap.String("uid", req.UID), zap.Error(tokenErr))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to issue reset token"))
	}

	if mailErr := h.mailer.SendPasswordReset(e.Request().Context(), user.Mail, user.UID, token); mailErr != nil {
		l.Error("failed to send reset mail", zap.String("uid", req.UID), zap.Error(mailErr))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to send reset mail"))
	}

	response := struct {
		Message string `json:"message"`
	}{Message: "password reset mail sent"}

	return e.JSON(http.StatusOK, response)
}

func (h *Handler) ConfirmPasswordReset(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		UID      string `json:"uid" validate:"required"`
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("confirming password reset", zap.String("uid", req.UID))

	uid, ok := auth.IsValidResetToken(h.resetSecret, req.Token)
	if !ok || uid != req.UID {
		l.Warn("reset token rejected", zap.String("uid", req.UID))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "invalid or expired reset token"))
	}

	if err := h.user.SetPassword(e.Request().Context(), req.UID, req.Password); err != nil {
		l.Error("failed to set password", zap.String("uid", req.UID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	response := struct {
		Message string `json:"message"`
	}{Message: "password updated"}

	return e.JSON(http.StatusOK, response)
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

// derivationResponse renders a derivation batch: partial failures keep the
// per-team summary in the body next to the error.
func (h *Handler) derivationResponse(e echo.Context, status int, summary *model.DerivationSummary, err *service.Error) error {
	if err != nil {
		response := struct {
			Summary *model.DerivationSummary `json:"summary"`
			Error   *service.Error           `json:"error"`
		}{Summary: summary, Error: err}

		return e.JSON(http.StatusMultiStatus, response)
	}

	response := struct {
		Summary *model.DerivationSummary `json:"summary"`
	}{Summary: summary}

	return e.JSON(status, response)
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeAlreadyExists:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodePartialFailure:
		return e.JSON(http.StatusMultiStatus, response)
	case service.ErrorCodeGatewayUnavailable:
		return e.JSON(http.StatusBadGateway, response)
	case service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
