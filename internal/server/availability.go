package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	availabilitydomain "github.com/smallbiznis/roomledger/internal/availability/domain"
)

type availabilityQuery struct {
	CheckIn      string `form:"checkin"`
	CheckOut     string `form:"checkout"`
	Rooms        string `form:"rooms"`
	ShortCircuit string `form:"short_circuit"`
}

func (s *Server) CheckAvailability(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query availabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	checkIn, err := parseDate("checkin", query.CheckIn)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	checkOut, err := parseDate("checkout", query.CheckOut)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	rooms := 1
	if value := strings.TrimSpace(query.Rooms); value != "" {
		rooms, err = strconv.Atoi(value)
		if err != nil {
			AbortWithError(c, newValidationError("rooms", "invalid_rooms", "invalid rooms"))
			return
		}
	}
	shortCircuit, err := parseOptionalBool("short_circuit", query.ShortCircuit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.availabilitySvc.CheckAvailability(c.Request.Context(), availabilitydomain.Request{
		RoomTypeID:   roomTypeID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Rooms:        rooms,
		ShortCircuit: shortCircuit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
