package users

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the account lifecycle over JSON routes.
type HTTPController struct {
	auth    Authenticator
	request *RequestPasswordResetHandler
	reset   *ResetPasswordHandler
	change  *ChangePasswordHandler
	guard   *Guard
	users   Users
	tokens  *TokenGuard
	logger  Logger
	debug   bool
}

// NewHTTPController creates a controller over the lifecycle services.
func NewHTTPController(auth Authenticator, guard *Guard) *HTTPController {
	return &HTTPController{
		auth:   auth,
		guard:  guard,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the controller.
func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithResetHandlers wires the password reset command handlers.
func (c *HTTPController) WithResetHandlers(request *RequestPasswordResetHandler, reset *ResetPasswordHandler) *HTTPController {
	c.request = request
	c.reset = reset
	return c
}

// WithChangeHandler wires the self-service password change handler.
func (c *HTTPController) WithChangeHandler(change *ChangePasswordHandler) *HTTPController {
	c.change = change
	return c
}

// WithUsers wires the account store for the read endpoints.
func (c *HTTPController) WithUsers(store Users) *HTTPController {
	c.users = store
	return c
}

// WithTokenGuard protects the authenticated and administrative routes.
// Without a guard every route is registered unprotected, which is only
// sensible behind an upstream gateway.
func (c *HTTPController) WithTokenGuard(guard *TokenGuard) *HTTPController {
	c.tokens = guard
	return c
}

// WithDebug enables response dumping to stdout.
func (c *HTTPController) WithDebug(debug bool) *HTTPController {
	c.debug = debug
	return c
}

// RegisterRoutes registers the lifecycle routes on the given group.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/login", c.Login)
	group.Post("/password/reset/request", c.RequestPasswordReset)
	group.Post("/password/reset", c.ResetPassword)
	group.Post("/password/change", c.ChangePassword)
	group.Get("/me", c.CurrentUser, c.protected()...)
	group.Get("/users/:id", c.ShowUser, c.admin()...)
	group.Put("/users/:id/roles/:role", c.GrantRole, c.admin()...)
	group.Delete("/users/:id/roles/:role", c.RevokeRole, c.admin()...)
	group.Post("/users/delete", c.DeleteUsers, c.admin()...)
	group.Delete("/users/:id", c.DeleteUser, c.admin()...)
	group.Post("/roles/delete", c.DeleteRoles, c.admin()...)
	group.Delete("/roles/:id", c.DeleteRole, c.admin()...)
}

func (c *HTTPController) protected() []router.MiddlewareFunc {
	if c.tokens == nil {
		return nil
	}
	return []router.MiddlewareFunc{c.tokens.Protected()}
}

func (c *HTTPController) admin() []router.MiddlewareFunc {
	if c.tokens == nil {
		return nil
	}
	return []router.MiddlewareFunc{c.tokens.RequireRole(RoleAdmin)}
}

// LoginPayload carries the credential pair.
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Password, validation.Required),
	)
}

// Login authenticates a credential pair and returns a signed token.
func (c *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	result, err := c.auth.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return c.handleError(ctx, err)
	}

	if c.debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(result))
		fmt.Println("================")
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token":                result.Token,
		"must_change_password": result.MustChangePassword,
	})
}

// PasswordResetRequestPayload identifies the account asking for a code.
type PasswordResetRequestPayload struct {
	Email string `json:"email" form:"email"`
}

// Validate will validate the payload
func (p PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// RequestPasswordReset mails a fresh verification code. The response
// never reveals whether the email belongs to an account.
func (c *HTTPController) RequestPasswordReset(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	err := c.request.Execute(ctx.Context(), RequestPasswordResetMessage{
		Email: payload.Email,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "sent",
	})
}

var codePattern = regexp.MustCompile(`^\d{6}$`)

// PasswordResetPayload carries the code and the replacement password.
type PasswordResetPayload struct {
	Email           string `json:"email" form:"email"`
	Code            string `json:"code" form:"code"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will validate the payload
func (p PasswordResetPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Code, validation.Required, validation.Match(codePattern).Error("must be a 6 digit code")),
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.ConfirmPassword, validation.Required),
	)
}

// ResetPassword consumes a verification code and sets the new password.
func (c *HTTPController) ResetPassword(ctx router.Context) error {
	payload := new(PasswordResetPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	err := c.reset.Execute(ctx.Context(), ResetPasswordMessage{
		Email:           payload.Email,
		Code:            payload.Code,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "password_reset",
	})
}

// PasswordChangePayload carries the authenticated self-service change.
type PasswordChangePayload struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will validate the payload
func (p PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.ConfirmPassword, validation.Required),
	)
}

// ChangePassword applies the pending must-change password update.
func (c *HTTPController) ChangePassword(ctx router.Context) error {
	payload := new(PasswordChangePayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	err := c.change.Execute(ctx.Context(), ChangePasswordMessage{
		Username:        payload.Username,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "password_changed",
	})
}

// CurrentUser returns the account behind the bearer token.
func (c *HTTPController) CurrentUser(ctx router.Context) error {
	actor, ok := ActorFromContext(ctx.Context())
	if !ok {
		return c.handleError(ctx, ErrAuthenticationFailed)
	}

	account, err := c.users.GetByUsername(ctx.Context(), actor.Username)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, account)
}

// ShowUser returns the account identified in the path.
func (c *HTTPController) ShowUser(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badPayload(ctx, err)
	}

	account, err := c.users.GetByID(ctx.Context(), userID)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, account)
}

// GrantRole adds the named role to the user in the path.
func (c *HTTPController) GrantRole(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badPayload(ctx, err)
	}

	account, err := c.guard.AddRoleToUser(ctx.Context(), userID, RoleName(ctx.Param("role")))
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, account)
}

// RevokeRole removes the named role from the user in the path.
func (c *HTTPController) RevokeRole(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badPayload(ctx, err)
	}

	account, err := c.guard.RemoveRoleFromUser(ctx.Context(), userID, RoleName(ctx.Param("role")))
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, account)
}

// DeleteUser removes a single account.
func (c *HTTPController) DeleteUser(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badPayload(ctx, err)
	}

	if err := c.guard.DeleteUser(ctx.Context(), userID); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "deleted",
	})
}

// BulkIDsPayload carries a batch of record IDs.
type BulkIDsPayload struct {
	IDs []string `json:"ids" form:"ids"`
}

// Validate will validate the payload
func (p BulkIDsPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.IDs, validation.Required, validation.Length(1, 0)),
	)
}

func (p BulkIDsPayload) parse() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(p.IDs))
	for _, raw := range p.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteUsers removes a batch of accounts, skipping protected ones.
func (c *HTTPController) DeleteUsers(ctx router.Context) error {
	payload := new(BulkIDsPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	ids, err := payload.parse()
	if err != nil {
		return c.badPayload(ctx, err)
	}

	deleted, err := c.guard.DeleteUsers(ctx.Context(), ids)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"deleted": deleted,
	})
}

// DeleteRole removes a single role definition.
func (c *HTTPController) DeleteRole(ctx router.Context) error {
	roleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badPayload(ctx, err)
	}

	if err := c.guard.DeleteRole(ctx.Context(), roleID); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "deleted",
	})
}

// DeleteRoles removes a batch of role definitions, skipping defaults.
func (c *HTTPController) DeleteRoles(ctx router.Context) error {
	payload := new(BulkIDsPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	ids, err := payload.parse()
	if err != nil {
		return c.badPayload(ctx, err)
	}

	deleted, err := c.guard.DeleteRoles(ctx.Context(), ids)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"deleted": deleted,
	})
}

func (c *HTTPController) badPayload(ctx router.Context, err error) error {
	c.logger.Error("Failed to parse payload", "error", err)
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error": "failed to parse payload",
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	c.logger.Info(
		"Request failed",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"category", richErr.Category,
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
