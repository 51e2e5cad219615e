package api

import (
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/rooms"
	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	service rooms.RoomUseCase
}

type pricePeriodRequest struct {
	StartDate Date    `json:"start_date"`
	EndDate   Date    `json:"end_date"`
	Price     float64 `json:"price"`
}

type createRoomRequest struct {
	HotelID           string                   `json:"hotel_id"`
	Name              string                   `json:"name"`
	MaxOccupancy      int                      `json:"max_occupancy"`
	AvailableQuantity int                      `json:"available_quantity"`
	BasePrice         float64                  `json:"base_price"`
	PricePeriods      []pricePeriodRequest     `json:"price_periods"`
	MarketPrices      []rooms.MarketPriceInput `json:"market_prices"`
	BulkSettings      domain.BulkSettings      `json:"bulk_settings"`
}

type roomResponse struct {
	*domain.Room
	CurrentAvailableQuantity int `json:"current_available_quantity"`
}

func toRoomResponse(r *domain.Room) roomResponse {
	return roomResponse{Room: r, CurrentAvailableQuantity: r.CurrentAvailableQuantity()}
}

func NewRoomHandler(service rooms.RoomUseCase) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/available", h.available)
	router.GET("/availability", h.hotelAvailability)
	router.GET("/bulk-availability", h.bulkAvailability)
	router.GET("/:roomId", h.get)
	router.GET("/:roomId/bulk-availability", h.roomBulkAvailability)
	router.PUT("/:roomId/availability", h.override)
}

func (h *RoomHandler) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	periods := make([]domain.PricePeriod, 0, len(req.PricePeriods))
	for _, p := range req.PricePeriods {
		periods = append(periods, domain.PricePeriod{StartDate: p.StartDate.Time, EndDate: p.EndDate.Time, Price: p.Price})
	}

	room, err := h.service.CreateRoom(c.Request.Context(), rooms.CreateRoomInput{
		HotelID:           req.HotelID,
		Name:              req.Name,
		MaxOccupancy:      req.MaxOccupancy,
		AvailableQuantity: req.AvailableQuantity,
		BasePrice:         req.BasePrice,
		PricePeriods:      periods,
		MarketPrices:      req.MarketPrices,
		BulkSettings:      req.BulkSettings,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (h *RoomHandler) list(c *gin.Context) {
	list, err := h.service.ListRooms(c.Request.Context(), c.Query("hotelId"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]roomResponse, 0, len(list))
	for i := range list {
		out = append(out, toRoomResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *RoomHandler) get(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponse(room))
}

func (h *RoomHandler) available(c *gin.Context) {
	q := newQuery(c)
	in := rooms.StayQuery{
		CheckIn:  q.date("checkIn"),
		CheckOut: q.date("checkOut"),
		Adults:   q.int("adults", 1),
		Children: q.int("children", 0),
	}
	if err := q.err(); err != nil {
		writeError(c, err)
		return
	}

	list, err := h.service.ListAvailable(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RoomHandler) hotelAvailability(c *gin.Context) {
	q := newQuery(c)
	in := rooms.HotelQuery{
		HotelID:  q.str("hotelId"),
		CheckIn:  q.date("checkIn"),
		CheckOut: q.date("checkOut"),
		Market:   q.str("market"),
	}
	if err := q.err(); err != nil {
		writeError(c, err)
		return
	}

	list, err := h.service.HotelAvailability(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RoomHandler) bulkAvailability(c *gin.Context) {
	q := newQuery(c)
	in := rooms.BulkQuery{
		HotelID:    q.str("hotelId"),
		CheckIn:    q.date("checkIn"),
		CheckOut:   q.date("checkOut"),
		Market:     q.str("market"),
		Quantities: q.quantities("quantities"),
	}
	if err := q.err(); err != nil {
		writeError(c, err)
		return
	}

	list, err := h.service.BulkAvailability(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RoomHandler) roomBulkAvailability(c *gin.Context) {
	q := newQuery(c)
	in := rooms.RoomBulkQuery{
		CheckIn:  q.date("checkIn"),
		CheckOut: q.date("checkOut"),
		Quantity: q.int("quantity", 1),
		Market:   q.str("market"),
	}
	if err := q.err(); err != nil {
		writeError(c, err)
		return
	}

	res, err := h.service.RoomBulkAvailability(c.Request.Context(), c.Param("roomId"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *RoomHandler) override(c *gin.Context) {
	var req rooms.OverrideInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	room, err := h.service.OverrideAvailability(c.Request.Context(), c.Param("roomId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponse(room))
}
