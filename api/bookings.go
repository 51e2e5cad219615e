package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	RoomID   string `json:"room_id"`
	Email    string `json:"email"`
	CheckIn  Date   `json:"check_in"`
	CheckOut Date   `json:"check_out"`
	Rooms    int    `json:"rooms"`
	Market   string `json:"market"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id/status", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		RoomID:   req.RoomID,
		UserID:   userID(c),
		Email:    req.Email,
		CheckIn:  req.CheckIn.Time,
		CheckOut: req.CheckOut.Time,
		Rooms:    req.Rooms,
		Market:   req.Market,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		ve := domain.NewValidationError()
		ve.Add("status", "unknown booking status")
		writeError(c, ve)
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
