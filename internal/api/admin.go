package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"metaed/internal/builder"

	"github.com/gin-gonic/gin"
)

// Reloader пересобирает модель по шаблонам; пустой список: шаблоны из конфигурации.
type Reloader func(ctx context.Context, patterns []string) (*builder.Result, error)

type reloadReq struct {
	Patterns []string `json:"patterns"`
	// Force подменяет модель, даже если в новой сборке есть ошибки
	Force bool `json:"force"`
}

const maxReportedIssues = 50

// POST /api/admin/reload
func AdminReloadHandler(storage *Storage, reload Reloader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reload == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "Reload is not configured"})
			return
		}
		var req reloadReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		patterns := make([]string, 0, len(req.Patterns))
		for _, p := range req.Patterns {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}

		// 1) собираем новую модель
		res, err := reload(c.Request.Context(), patterns)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Source load error", "details": err.Error()})
			return
		}

		// 2) с ошибками модель не подменяем, пока не попросят явно
		if errs := res.Failures.Errors(); len(errs) > 0 && !req.Force {
			out := make([]Row, 0, min(len(errs), maxReportedIssues))
			for _, f := range errs[:min(len(errs), maxReportedIssues)] {
				out = append(out, failureRow(f))
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "model has errors",
				"total":  len(errs),
				"issues": out,
				"hint":   "fix sources or retry with force",
			})
			return
		}

		// 3) атомарная замена
		snap := storage.Swap(res)
		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"buildId":    snap.ID,
			"files":      len(res.Files),
			"namespaces": res.Registry.Len(),
			"entities":   res.Registry.Entities(),
			"errors":     len(res.Failures.Errors()),
			"warnings":   len(res.Failures.Warnings()),
		})
	}
}
