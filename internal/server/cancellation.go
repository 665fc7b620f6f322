package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	cancellationdomain "github.com/smallbiznis/roomledger/internal/cancellation/domain"
)

func (s *Server) ResolveRefund(c *gin.Context) {
	hotelID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	days, err := strconv.Atoi(strings.TrimSpace(c.Query("days_before_checkin")))
	if err != nil {
		AbortWithError(c, newValidationError("days_before_checkin", "invalid_days_before_checkin", "invalid days_before_checkin"))
		return
	}

	resolution, err := s.cancellationSvc.ResolveRefund(c.Request.Context(), hotelID, days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resolution})
}

func (s *Server) QuoteRefund(c *gin.Context) {
	hotelID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req cancellationdomain.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.HotelID = hotelID

	quote, err := s.cancellationSvc.QuoteRefund(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quote})
}

func (s *Server) ListCancellationTiers(c *gin.Context) {
	hotelID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tiers, err := s.cancellationSvc.ListTiers(c.Request.Context(), hotelID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tiers})
}

func (s *Server) CreateCancellationTier(c *gin.Context) {
	hotelID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req cancellationdomain.CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.HotelID = hotelID

	tier, err := s.cancellationSvc.CreateTier(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tier})
}
