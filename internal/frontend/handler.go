package frontend

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EmpowerMS/empower-ms/internal/security"
)

// NewPageHandler creates a handler serving the embedded calculator page with
// the per-request CSP nonce injected into its inline script and style.
func NewPageHandler(indexTemplate *template.Template) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				slog.Error("Failed to generate nonce", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		if err := RenderIndex(c, indexTemplate, nonce); err != nil {
			slog.Error("Failed to render calculator page", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
			return
		}
	}
}
