package auth

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFFieldName is the hidden form input carrying the token.
const CSRFFieldName = "csrf_token"

const contextKeyCSRFField = "csrf_field"

// CSRFMiddleware protects unsafe methods with gorilla/csrf.
// When secure is false requests are treated as plaintext HTTP so the
// Referer check that csrf applies to TLS requests does not reject them.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(contextKeyCSRFField, csrf.TemplateField(r))
			// Session middleware runs after this, on top of the CSRF context.
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf validation failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Form expired</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<main class="notice">
<h1>Form expired</h1>
<p>The form you submitted is no longer valid.</p>
<p>Go back, reload the page and try again, or <a href="/">return to the start page</a>.</p>
</main>
</body>
</html>`))
}

// CSRFTokenField returns the hidden input for templates, or nothing when
// CSRF protection is disabled.
func CSRFTokenField(c *gin.Context) template.HTML {
	if field, exists := c.Get(contextKeyCSRFField); exists {
		if f, ok := field.(template.HTML); ok {
			return f
		}
	}
	return ""
}
