package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/forms"
)

// Where users land after registering or logging in without a next parameter.
const defaultLandingPath = "/catalog/"

// Renderer draws a full HTML page from the shared layout.
type Renderer interface {
	Render(c *gin.Context, status int, page string, data gin.H)
}

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the catalog.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return defaultLandingPath
}

// AuthController handles the account lifecycle pages.
type AuthController struct {
	service  *Service
	sessions *SessionManager
	limiter  LoginLimiter
	render   Renderer
}

// NewAuthController creates a controller. limiter may be nil to disable throttling.
func NewAuthController(service *Service, sessions *SessionManager, limiter LoginLimiter, render Renderer) *AuthController {
	return &AuthController{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		render:   render,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/register/", ac.RegisterPage)
	router.POST("/register/", ac.Register)
	router.GET("/login/", ac.LoginPage)
	router.POST("/login/", ac.Login)
	router.GET("/logout/", ac.Logout)
	router.POST("/logout/", ac.Logout)
}

func (ac *AuthController) RegisterPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, defaultLandingPath)
		return
	}
	ac.renderRegister(c, forms.RegistrationForm{}, forms.Errors{})
}

// Register creates the account and logs the new user in.
func (ac *AuthController) Register(c *gin.Context) {
	var form forms.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("failed to bind registration form", "error", err)
	}

	errs, err := form.Validate(c.Request.Context(), ac.service)
	if err != nil {
		ac.fail(c, "registration lookup failed", err)
		return
	}
	if !errs.Valid() {
		ac.renderRegister(c, form, errs)
		return
	}

	user, err := ac.service.Register(c.Request.Context(), form.Username, form.Email, form.Password1)
	if errors.Is(err, ErrUserExists) {
		errs.UsernameTaken()
		ac.renderRegister(c, form, errs)
		return
	}
	if err != nil {
		ac.fail(c, "registration failed", err)
		return
	}

	if err := ac.sessions.CreateSession(c.Request, user); err != nil {
		ac.fail(c, "failed to create session", err)
		return
	}
	ac.sessions.AddFlash(c.Request, FlashSuccess, "Registration successful!")
	c.Redirect(http.StatusFound, defaultLandingPath)
}

func (ac *AuthController) renderRegister(c *gin.Context, form forms.RegistrationForm, errs forms.Errors) {
	// Never echo passwords back into the page.
	form.Password1, form.Password2 = "", ""
	ac.render.Render(c, http.StatusOK, "register", gin.H{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

func (ac *AuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"))
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, next)
		return
	}
	ac.renderLogin(c, http.StatusOK, forms.LoginForm{Next: next}, forms.Errors{})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("failed to bind login form", "error", err)
	}
	form.Next = sanitizeRedirectPath(form.Next)

	errs := form.Validate()
	if !errs.Valid() {
		ac.renderLogin(c, http.StatusOK, form, errs)
		return
	}

	ctx := c.Request.Context()
	clientIP := c.ClientIP()

	if ac.limiter != nil {
		if allowed, retryAfter := ac.limiter.Allow(ctx, clientIP, form.Username); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			errs.Add(forms.NonFieldKey, "Too many login attempts. Please try again later.")
			ac.renderLogin(c, http.StatusTooManyRequests, form, errs)
			return
		}
	}

	user, err := ac.service.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			ac.fail(c, "authentication failed", err)
			return
		}
		if ac.limiter != nil {
			ac.limiter.RecordFailure(ctx, clientIP, form.Username)
		}
		errs.Add(forms.NonFieldKey, "Please enter a correct username and password.")
		ac.renderLogin(c, http.StatusOK, form, errs)
		return
	}

	if ac.limiter != nil {
		ac.limiter.RecordSuccess(ctx, clientIP, form.Username)
	}

	if err := ac.sessions.CreateSession(c.Request, user); err != nil {
		ac.fail(c, "failed to create session", err)
		return
	}
	ac.sessions.AddFlash(c.Request, FlashSuccess, "Welcome back, "+user.Username+"!")
	c.Redirect(http.StatusFound, form.Next)
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, form forms.LoginForm, errs forms.Errors) {
	form.Password = ""
	ac.render.Render(c, status, "login", gin.H{
		"Title":  "Log in",
		"Form":   form,
		"Errors": errs,
	})
}

// Logout destroys the session and returns to the dashboard.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		slog.Warn("failed to destroy session", "error", err)
	}
	ac.sessions.AddFlash(c.Request, FlashInfo, "You have been logged out.")
	c.Redirect(http.StatusFound, "/")
}

func (ac *AuthController) fail(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.Request.URL.Path, "error", err)
	ac.render.Render(c, http.StatusInternalServerError, "error", gin.H{
		"Title":   "Server error",
		"Message": "Something went wrong. Please try again later.",
	})
}
