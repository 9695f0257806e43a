package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/report"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// Handler serves the report API.
type Handler struct {
	cfg *config.Config
	log logging.Logger

	// mu serializes workflows that write reports.
	mu sync.Mutex
}

// NewHandler creates a Handler. cfg is cloned.
func NewHandler(cfg *config.Config, log logging.Logger) (*Handler, error) {
	if log == nil {
		log = logging.Discard()
	}
	own, err := cfg.Clone()
	if err != nil {
		return nil, err
	}
	return &Handler{cfg: own, log: log}, nil
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)
	router.POST("/resolve", h.Resolve)
	router.POST("/check", h.Check)
	router.POST("/transfer", h.Transfer)
	router.POST("/daily", h.Daily)
}

// session creates a Session; overwrite answers every confirmation.
func (h *Handler) session(overwrite bool) (*report.Session, error) {
	confirm := filesafety.Never
	if overwrite {
		confirm = filesafety.Always
	}
	return report.NewSession(h.cfg, report.WithLogger(h.log), report.WithConfirm(confirm))
}

// =============================================================================
// STATUS
// =============================================================================

// StatusResponse system status
type StatusResponse struct {
	Root        string `json:"root"`
	WeekRule    string `json:"weekRule"`
	WorkPlan    string `json:"workPlan"`
	WorkPlanOK  bool   `json:"workPlanOk"`
	TemplatesOK bool   `json:"templatesOk"`
	CurrentWeek string `json:"currentWeek"`
	ServerTime  string `json:"serverTime"`
}

// GetStatus
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	now := time.Now()
	cal := calendar.NewResolver(h.cfg.Rule())
	c.JSON(http.StatusOK, StatusResponse{
		Root:        h.cfg.Root,
		WeekRule:    cal.Rule().Name(),
		WorkPlan:    h.cfg.WorkPlanPath(),
		WorkPlanOK:  h.cfg.WorkPlan != "" && utils.FileExists(h.cfg.WorkPlanPath()),
		TemplatesOK: dirExists(h.cfg.TemplatesPath()),
		CurrentWeek: cal.WeekNumber(now),
		ServerTime:  now.Format(time.RFC3339),
	})
}

// =============================================================================
// RESOLVE
// =============================================================================

type resolveRequest struct {
	Date string `json:"date" binding:"required"`
}

// ResolveResponse is the location of one date.
type ResolveResponse struct {
	Date         string `json:"date"`
	Week         string `json:"week"`
	Year         int    `json:"year"`
	Slash        string `json:"slash"`
	Dot          string `json:"dot"`
	Compact      string `json:"compact"`
	YearPath     string `json:"yearPath"`
	WeekPath     string `json:"weekPath"`
	DayPath      string `json:"dayPath"`
	Report       string `json:"report"`
	ReportExists bool   `json:"reportExists"`
}

// Resolve
// POST /api/resolve
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}
	s, err := h.session(false)
	if err != nil {
		h.fail(c, err)
		return
	}

	loc := s.Resolve(date)
	c.JSON(http.StatusOK, ResolveResponse{
		Date:         loc.Day.Date.Format("2006-01-02"),
		Week:         loc.Day.WeekLabel,
		Year:         loc.Day.Year,
		Slash:        loc.Day.Formatted.Slash,
		Dot:          loc.Day.Formatted.Dot,
		Compact:      loc.Day.Formatted.Compact,
		YearPath:     loc.YearPath,
		WeekPath:     loc.WeekPath,
		DayPath:      loc.DayPath,
		Report:       loc.ReportPath(),
		ReportExists: utils.FileExists(loc.ReportPath()),
	})
}

// =============================================================================
// CHECK
// =============================================================================

type checkRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

type fileState struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Locked bool   `json:"locked"`
}

// Check reports whether files exist and are open elsewhere. The status is
// 409 when any of them is locked.
// POST /api/check
func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status := http.StatusOK
	files := make([]fileState, 0, len(req.Paths))
	for _, p := range req.Paths {
		p = h.cfg.Resolve(p)
		st := fileState{Path: p, Exists: utils.FileExists(p), Locked: filesafety.IsLocked(p)}
		if st.Locked {
			status = http.StatusConflict
		}
		files = append(files, st)
	}
	c.JSON(status, gin.H{"files": files})
}

// =============================================================================
// WORKFLOWS
// =============================================================================

type transferRequest struct {
	Scope     string   `json:"scope"`
	Dates     []string `json:"dates"`
	Overwrite bool     `json:"overwrite"`
}

type dayResponse struct {
	Date   string `json:"date"`
	Source string `json:"source"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// Transfer runs a delays & cancellations batch.
// POST /api/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	scope, err := report.ParseScope(req.Scope)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "scope"})
		return
	}
	dates, err := parseDates(req.Dates)
	if err != nil {
		h.fail(c, err)
		return
	}

	s, err := h.session(req.Overwrite)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.mu.Lock()
	res, err := s.DelayBatch(report.BatchOptions{Scope: scope, Dates: dates})
	h.mu.Unlock()
	if err != nil {
		h.fail(c, err)
		return
	}

	days := make([]dayResponse, 0, len(res.Days))
	for _, d := range res.Days {
		dr := dayResponse{Date: d.Date.Format("2006-01-02"), Source: d.Source, Rows: d.Rows}
		if d.Err != nil {
			dr.Error = d.Err.Error()
		}
		days = append(days, dr)
	}
	c.JSON(http.StatusOK, gin.H{
		"report":        res.Report,
		"created":       res.Created,
		"cancellations": res.Cancellations,
		"delays":        res.Delays,
		"days":          days,
		"missingFields": missingStrings(res.Missing),
		"runLog":        res.RunLog,
	})
}

type dailyRequest struct {
	Date     string `json:"date" binding:"required"`
	Recreate bool   `json:"recreate"`
}

// Daily creates and fills a daily report. recreate replaces an existing
// report with a fresh template copy.
// POST /api/daily
func (h *Handler) Daily(c *gin.Context) {
	var req dailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}

	s, err := h.session(req.Recreate)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.mu.Lock()
	res, err := s.CreateDaily(date, report.DailyOptions{Recreate: req.Recreate})
	h.mu.Unlock()
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":         res.Report,
		"created":        res.Created,
		"existing":       res.Existing,
		"foldersCreated": len(res.FoldersCreated),
		"rows":           res.Rows,
		"planned":        res.Planned,
		"cancelled":      res.Cancelled,
		"rowsTrimmed":    res.RowsTrimmed,
		"missingFields":  missingStrings(res.Missing),
	})
}

// =============================================================================
// ERRORS
// =============================================================================

// fail writes err with the status its type maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	body := gin.H{"error": err.Error()}

	var notFound *report.PathNotFoundError
	var locked *filesafety.LockedError
	var malformed *calendar.MalformedDateError
	var missing *sheet.HeaderMissingError

	switch {
	case errors.As(err, &notFound):
		body["path"] = notFound.Path
		return http.StatusNotFound, body
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, body
	case errors.As(err, &locked):
		body["path"] = locked.Path
		return http.StatusConflict, body
	case errors.Is(err, filesafety.ErrOverwriteDeclined):
		return http.StatusConflict, body
	case errors.As(err, &malformed):
		body["field"] = "date"
		body["value"] = malformed.Input
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &missing):
		body["sheet"] = missing.Sheet
		body["fields"] = missing.Names
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, report.ErrNoWorkPlan), errors.Is(err, report.ErrNoDates):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDates(in []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(in))
	for _, s := range in {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func missingStrings(fields []transfer.MissingField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.String())
	}
	return out
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
