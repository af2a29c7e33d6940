package transport

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	media "toursApi/internal/modules/media/interface"
	resource "toursApi/internal/modules/resource/interface"
	"toursApi/internal/modules/users/application/usecase"
	"toursApi/internal/modules/users/domain"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/httputil"
)

const MessageUseSignup = "This route is not defined! Please use /signup instead"

// CookieOptions shape the session cookie.
type CookieOptions struct {
	TTL time.Duration
	// Secure forces the Secure flag; otherwise it follows the request scheme.
	Secure bool
}

type Handler struct {
	auth    *usecase.AuthService
	account *usecase.AccountService
	crud    *resource.Handler
	cookie  CookieOptions
}

func NewHandler(authService *usecase.AuthService, account *usecase.AccountService, crud *resource.Handler, cookie CookieOptions) *Handler {
	if cookie.TTL <= 0 {
		cookie.TTL = 90 * 24 * time.Hour
	}
	return &Handler{auth: authService, account: account, crud: crud, cookie: cookie}
}

type sessionResponse struct {
	Status string         `json:"status"`
	Token  string         `json:"token"`
	Data   map[string]any `json:"data"`
}

func (h *Handler) respondWithSession(c echo.Context, status int, session *usecase.Session) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HttpOnly: true,
		Secure:   h.cookie.Secure || c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(status, sessionResponse{
		Status: httputil.StatusSuccess,
		Token:  session.Token,
		Data:   map[string]any{"user": session.User},
	})
}

func (h *Handler) baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

func (h *Handler) Signup(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	session, err := h.auth.Signup(c.Request().Context(), payload, h.baseURL(c)+"/me")
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusCreated, session)
}

func (h *Handler) Login(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	email, _ := payload[domain.FieldEmail].(string)
	password, _ := payload[domain.FieldPassword].(string)
	session, err := h.auth.Login(c.Request().Context(), email, password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, session)
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    auth.LoggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, map[string]string{"status": httputil.StatusSuccess})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	email, _ := payload[domain.FieldEmail].(string)
	base := h.baseURL(c) + "/api/v1/users/resetPassword/"
	err = h.auth.ForgotPassword(c.Request().Context(), email, func(token string) string {
		return base + token
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": httputil.StatusSuccess, "message": "Token sent to email!"})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	session, err := h.auth.ResetPassword(c.Request().Context(), c.Param("token"), payload)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, session)
}

func (h *Handler) UpdateMyPassword(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	session, err := h.auth.UpdatePassword(c.Request().Context(), CurrentUserID(c), payload)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, session)
}

func (h *Handler) Me(c echo.Context) error {
	user, err := h.account.Me(c.Request().Context(), CurrentUserID(c))
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, user)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	photo, err := media.File(c, domain.FieldPhoto)
	if err != nil {
		return err
	}
	user, err := h.account.UpdateMe(c.Request().Context(), CurrentUserID(c), payload, photo)
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) DeleteMe(c echo.Context) error {
	if err := h.account.DeleteMe(c.Request().Context(), CurrentUserID(c)); err != nil {
		return err
	}
	return httputil.Deleted(c)
}

// CreateUser points clients at the signup route.
func (h *Handler) CreateUser(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "message": MessageUseSignup})
}

func (h *Handler) Routes(g *echo.Group, access httputil.Access) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.GET("/logout", h.Logout)
	g.POST("/forgotPassword", h.ForgotPassword)
	g.PATCH("/resetPassword/:token", h.ResetPassword)

	signedIn := access.Authenticated()
	g.PATCH("/updateMyPassword", h.UpdateMyPassword, signedIn...)
	g.GET("/me", h.Me, signedIn...)
	g.PATCH("/updateMe", h.UpdateMe, signedIn...)
	g.DELETE("/deleteMe", h.DeleteMe, signedIn...)

	admins := access.Roles(domain.RoleAdmin)
	g.GET("", h.crud.List, admins...)
	g.POST("", h.CreateUser, admins...)
	g.GET("/:id", h.crud.GetOne, admins...)
	g.PATCH("/:id", h.crud.UpdateOne, admins...)
	g.DELETE("/:id", h.crud.DeleteOne, admins...)
}
