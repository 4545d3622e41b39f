package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/Domenick1991/parkbooking/internal/service/availability"
	"github.com/Domenick1991/parkbooking/internal/service/spots"
	"github.com/gin-gonic/gin"
)

type SpotHandler struct {
	spots        spots.SpotUseCase
	availability availability.AvailabilityUseCase
}

type spotResponse struct {
	ID           string `json:"id"`
	SpotNumber   string `json:"spot_number"`
	Type         string `json:"type"`
	ParkingLotID string `json:"parking_lot_id"`
}

type spotFilterQuery struct {
	ParkingLotID string `form:"parking_lot_id"`
	Type         string `form:"type" binding:"omitempty,oneof=STANDARD COMPACT HANDICAP ELECTRIC MOTORCYCLE"`
}

// Times use RFC3339, gin's default for time.Time form fields. An offset
// sent as a bare "+" arrives decoded as a space; restoreOffsets puts it back.
type availabilityQuery struct {
	spotFilterQuery
	StartTime time.Time `form:"start_time" binding:"required"`
	EndTime   time.Time `form:"end_time" binding:"required"`
}

func NewSpotHandler(spotService spots.SpotUseCase, availabilityService availability.AvailabilityUseCase) *SpotHandler {
	return &SpotHandler{spots: spotService, availability: availabilityService}
}

func (h *SpotHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/types", h.types)
	router.GET("/available", h.available)
	router.GET("/:id", h.get)
}

func (h *SpotHandler) list(c *gin.Context) {
	var q spotFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindingError(err))
		return
	}

	result, err := h.spots.List(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSpotResponses(result))
}

func (h *SpotHandler) get(c *gin.Context) {
	spot, err := h.spots.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSpotResponse(*spot))
}

func (h *SpotHandler) types(c *gin.Context) {
	c.JSON(http.StatusOK, h.spots.Types())
}

func (h *SpotHandler) available(c *gin.Context) {
	restoreOffsets(c, "start_time", "end_time")

	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindingError(err))
		return
	}

	window := domain.Window{Start: q.StartTime, End: q.EndTime}
	result, err := h.availability.FindAvailable(c.Request.Context(), window, q.filter())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSpotResponses(result))
}

func restoreOffsets(c *gin.Context, keys ...string) {
	query := c.Request.URL.Query()
	changed := false
	for _, key := range keys {
		if v := query.Get(key); strings.Contains(v, " ") {
			query.Set(key, strings.ReplaceAll(v, " ", "+"))
			changed = true
		}
	}
	if changed {
		c.Request.URL.RawQuery = query.Encode()
	}
}

func (q spotFilterQuery) filter() domain.SpotFilter {
	return domain.SpotFilter{ParkingLotID: q.ParkingLotID, Type: domain.SpotType(q.Type)}
}

func toSpotResponse(s domain.Spot) spotResponse {
	return spotResponse{
		ID:           s.ID,
		SpotNumber:   s.SpotNumber,
		Type:         string(s.Type),
		ParkingLotID: s.ParkingLotID,
	}
}

func toSpotResponses(list []domain.Spot) []spotResponse {
	out := make([]spotResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSpotResponse(s))
	}
	return out
}
