package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/service/bulkbooking"
	"github.com/gin-gonic/gin"
)

type BulkBookingHandler struct {
	service bulkbooking.BulkBookingUseCase
}

type createBulkBookingRequest struct {
	GroupName       string                   `json:"group_name"`
	Bookings        []bulkbooking.EntryInput `json:"bookings"`
	CheckIn         Date                     `json:"check_in"`
	CheckOut        Date                     `json:"check_out"`
	CheckInTime     string                   `json:"check_in_time"`
	CheckOutTime    string                   `json:"check_out_time"`
	Adults          int                      `json:"adults"`
	Children        int                      `json:"children"`
	MealPlan        string                   `json:"meal_plan"`
	SpecialRequests string                   `json:"special_requests"`
	Market          string                   `json:"market"`
	Payment         domain.Payment           `json:"payment"`
}

func NewBulkBookingHandler(service bulkbooking.BulkBookingUseCase) *BulkBookingHandler {
	return &BulkBookingHandler{service: service}
}

func (h *BulkBookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id/confirm", h.confirm)
	router.PUT("/:id/cancel", h.cancel)
	router.PUT("/:id/complete", h.complete)
	router.DELETE("/:id", h.delete)
}

func (h *BulkBookingHandler) create(c *gin.Context) {
	var req createBulkBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.service.Create(c.Request.Context(), bulkbooking.CreateInput{
		GroupName:       req.GroupName,
		Bookings:        req.Bookings,
		CheckIn:         req.CheckIn.Time,
		CheckOut:        req.CheckOut.Time,
		CheckInTime:     req.CheckInTime,
		CheckOutTime:    req.CheckOutTime,
		Adults:          req.Adults,
		Children:        req.Children,
		MealPlan:        req.MealPlan,
		SpecialRequests: req.SpecialRequests,
		Market:          req.Market,
		Payment:         req.Payment,
		UserID:          userID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BulkBookingHandler) list(c *gin.Context) {
	filter := repository.BulkBookingFilter{HotelID: c.Query("hotelId")}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseBulkBookingStatus(raw)
		if !ok {
			ve := domain.NewValidationError()
			ve.Add("status", "unknown bulk booking status")
			writeError(c, ve)
			return
		}
		filter.Status = status
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BulkBookingHandler) get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BulkBookingHandler) confirm(c *gin.Context) {
	b, err := h.service.ConfirmAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BulkBookingHandler) cancel(c *gin.Context) {
	var details domain.CancellationDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), c.Param("id"), details, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BulkBookingHandler) complete(c *gin.Context) {
	b, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BulkBookingHandler) delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
