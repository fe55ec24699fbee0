package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	closingapp "github.com/sklad/pos/internal/application/closing"
)

// DailyCloseHandler handles the end-of-day close and its exports
type DailyCloseHandler struct {
	BaseHandler
	closeService *closingapp.CloseService
}

// NewDailyCloseHandler creates a new DailyCloseHandler
func NewDailyCloseHandler(closeService *closingapp.CloseService) *DailyCloseHandler {
	return &DailyCloseHandler{closeService: closeService}
}

// ExportQuery selects the calendar period (WEEK, MONTH, QUARTER, HALF_YEAR
// or YEAR) containing Date. Date defaults to today, Format to html.
type ExportQuery struct {
	Period string    `form:"period" binding:"required,max=20"`
	Date   time.Time `form:"date" time_format:"2006-01-02"`
	Format string    `form:"format" binding:"omitempty,oneof=html pdf"`
}

// Today godoc
//
//	@Summary	Running totals of the open business day
//	@Tags		daily-close
//	@Router		/daily-close/today [get]
func (h *DailyCloseHandler) Today(c *gin.Context) {
	summary, err := h.closeService.GetTodaySales(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Close godoc
//
//	@Summary	Close the business day
//	@Tags		daily-close
//	@Router		/daily-close [post]
func (h *DailyCloseHandler) Close(c *gin.Context) {
	var req closingapp.CloseDayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	dc, err := h.closeService.CloseDay(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dc)
}

// List godoc
//
//	@Summary	List daily closes between two dates
//	@Tags		daily-close
//	@Router		/daily-closes [get]
func (h *DailyCloseHandler) List(c *gin.Context) {
	var q DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.From.IsZero() || q.To.IsZero() {
		h.BadRequest(c, "Both from and to are required")
		return
	}
	closes, err := h.closeService.ListDailyCloses(c.Request.Context(), q.From, q.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, closes)
}

// Get godoc
//
//	@Summary	Get the close of a business date
//	@Tags		daily-close
//	@Router		/daily-closes/{date} [get]
func (h *DailyCloseHandler) Get(c *gin.Context) {
	date, ok := h.ParseDate(c, "date")
	if !ok {
		return
	}
	dc, err := h.closeService.GetDailyClose(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dc)
}

// Export godoc
//
//	@Summary	Download the closes of a calendar period as an HTML or PDF document
//	@Tags		daily-close
//	@Produce	html,application/pdf
//	@Router		/exports/daily-closes [get]
func (h *DailyCloseHandler) Export(c *gin.Context) {
	var q ExportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	ref := q.Date
	if ref.IsZero() {
		ref = time.Now()
	}
	export := h.closeService.ExportDailyCloses
	if q.Format == "pdf" {
		export = h.closeService.ExportDailyClosesPDF
	}
	doc, err := export(c.Request.Context(), q.Period, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
