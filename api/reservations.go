package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/Domenick1991/parkbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service booking.BookingUseCase
}

type createReservationRequest struct {
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	ParkingSpotID string    `json:"parking_spot_id" binding:"required"`
	UserID        string    `json:"user_id" binding:"required"`
}

type reservationResponse struct {
	ID            string `json:"id"`
	ParkingSpotID string `json:"parking_spot_id"`
	UserID        string `json:"user_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func NewReservationHandler(service booking.BookingUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/user/:userId", h.listByUser)
	router.PUT("/:id", h.cancel)
	router.POST("/:id/cancel", h.cancel)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		SpotID:    req.ParkingSpotID,
		UserID:    req.UserID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(*created))
}

func (h *ReservationHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponses(bookings))
}

func (h *ReservationHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*found))
}

func (h *ReservationHandler) listByUser(c *gin.Context) {
	bookings, err := h.service.ListUserBookings(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponses(bookings))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	if err := h.service.CancelBooking(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toReservationResponse(b domain.Booking) reservationResponse {
	resp := reservationResponse{
		ID:            b.ID,
		ParkingSpotID: b.SpotID,
		UserID:        b.UserID,
		StartTime:     b.Window.Start.Format(time.RFC3339),
		EndTime:       b.Window.End.Format(time.RFC3339),
		Status:        string(b.Status),
	}
	if !b.CreatedAt.IsZero() {
		resp.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toReservationResponses(bookings []domain.Booking) []reservationResponse {
	out := make([]reservationResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toReservationResponse(b))
	}
	return out
}
