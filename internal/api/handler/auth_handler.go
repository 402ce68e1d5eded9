package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a session token. When the account
// must change its password, the token only grants access to
// POST /auth/password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	cred, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.IssueToken(cred)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:              token,
		User:               toUserResponse(cred.Username, cred.Role),
		MustChangePassword: cred.MustChangePassword,
	})
}

// ChangePassword replaces the caller's password and returns a fresh token
// without the must-change restriction.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "New password and confirmation"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	username, role, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.authService.ChangePassword(c.Request().Context(), username, req.NewPassword, req.Confirmation); err != nil {
		return err
	}

	token, err := h.authService.IssueToken(&domain.Credential{Username: username, Role: role})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  toUserResponse(username, role),
	})
}

// Me returns the identity behind the session and the home view for its role.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	username, role, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(username, role))
}

func toUserResponse(username, role string) userResponse {
	home := "/me"
	if role == domain.RoleAdmin {
		home = "/admin/imports"
	}
	return userResponse{Username: username, Role: role, Home: home}
}
