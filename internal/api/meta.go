package api

import (
	"net/http"
	"strconv"
	"strings"

	"metaed/internal/model"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaNamespaceItem struct {
	Name             string `json:"name"`
	ProjectExtension string `json:"projectExtension,omitempty"`
	IsExtension      bool   `json:"isExtension"`
	Entities         int    `json:"entities"`
}

type metaBuild struct {
	*Snapshot

	Files      []string            `json:"files"`
	Namespaces []metaNamespaceItem `json:"namespaces"`
	Properties int                 `json:"properties"`
	Errors     int                 `json:"errors"`
	Warnings   int                 `json:"warnings"`
}

type metaNamespace struct {
	metaNamespaceItem

	Kinds map[model.Kind]int `json:"kinds"`
}

func namespaceItem(ns *model.Namespace) metaNamespaceItem {
	return metaNamespaceItem{
		Name:             ns.Name,
		ProjectExtension: ns.ProjectExtension,
		IsExtension:      ns.IsExtension(),
		Entities:         ns.Entities.Len(),
	}
}

// snapshotOr503 возвращает текущую модель или отвечает 503, если сборки ещё не было.
func snapshotOr503(c *gin.Context, storage *Storage) (*Snapshot, bool) {
	snap := storage.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Model is not built yet"})
		return nil, false
	}
	return snap, true
}

func namespaceOr404(c *gin.Context, snap *Snapshot) (*model.Namespace, bool) {
	ns, ok := snap.NormalizeNamespace(c.Param("namespace"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Namespace not found"})
		return nil, false
	}
	return ns, true
}

// GET /api/meta
func MetaListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		res := snap.Result
		out := metaBuild{
			Snapshot:   snap,
			Files:      res.Files,
			Namespaces: make([]metaNamespaceItem, 0, res.Registry.Len()),
			Properties: res.Properties.Len(),
			Errors:     len(res.Failures.Errors()),
			Warnings:   len(res.Failures.Warnings()),
		}
		for _, ns := range res.Registry.All() {
			out.Namespaces = append(out.Namespaces, namespaceItem(ns))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/meta/:namespace
func MetaNamespaceHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		ns, ok := namespaceOr404(c, snap)
		if !ok {
			return
		}
		kinds := make(map[model.Kind]int)
		for _, k := range ns.Entities.Kinds() {
			kinds[k] = ns.Entities.Count(k)
		}
		c.JSON(http.StatusOK, metaNamespace{metaNamespaceItem: namespaceItem(ns), Kinds: kinds})
	}
}

// GET /api/meta/:namespace/:kind: плоский список + total в заголовке
func MetaKindHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		ns, ok := namespaceOr404(c, snap)
		if !ok {
			return
		}
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown kind", "kind": c.Param("kind")})
			return
		}

		all := ns.Entities.All(kind)
		rows := make([]Row, 0, len(all))
		for _, e := range all {
			rows = append(rows, entityRow(e))
		}
		page, total := applyList(rows, parseListParams(c.Request.URL.Query()))
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/meta/:namespace/:kind/:name: сущность целиком
func MetaEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		ns, ok := namespaceOr404(c, snap)
		if !ok {
			return
		}
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown kind", "kind": c.Param("kind")})
			return
		}
		e, ok := LookupEntity(ns, kind, c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		etag := `"` + snap.ID + `"`
		c.Header("ETag", etag)
		// снапшот неизменен, поэтому его ID годится как версия сущности
		if etagMatches(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"humanized": e.Humanized(),
			"entity":    e,
		})
	}
}

// etagMatches: If-None-Match со списком тегов, W/ и "*".
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == "*" || tag == etag {
			return true
		}
	}
	return false
}

// GET /api/types/:namespace: таблица конкретных простых типов
func TypesHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		ns, ok := namespaceOr404(c, snap)
		if !ok {
			return
		}
		var rows []Row
		for _, k := range []model.Kind{model.KindDecimalType, model.KindIntegerType, model.KindStringType} {
			for _, t := range model.AllOf[*model.SimpleType](ns.Entities, k) {
				rows = append(rows, entityRow(t))
			}
		}
		page, total := applyList(rows, parseListParams(c.Request.URL.Query()))
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/failures: диагностики сборки; фильтры category, validator, file
func FailuresHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotOr503(c, storage)
		if !ok {
			return
		}
		all := snap.Result.Failures.All()
		rows := make([]Row, 0, len(all))
		for _, f := range all {
			rows = append(rows, failureRow(f))
		}
		page, total := applyList(rows, parseListParams(c.Request.URL.Query()))
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, page)
	}
}

// GET /healthz
func HealthHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := storage.Current()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "buildId": snap.ID})
	}
}
