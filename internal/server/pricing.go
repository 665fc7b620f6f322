package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tariffdomain "github.com/smallbiznis/roomledger/internal/tariff/domain"
)

func (s *Server) CalculatePrice(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	checkIn, err := parseDate("checkin", c.Query("checkin"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	checkOut, err := parseDate("checkout", c.Query("checkout"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	mealPlanID, err := parseOptionalSnowflakeID("meal_plan_id", c.Query("meal_plan_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quote, err := s.tariffSvc.CalculateTotalPrice(c.Request.Context(), tariffdomain.PriceRequest{
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		MealPlanID: mealPlanID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quote})
}

func (s *Server) ListTariffRules(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rules, err := s.tariffSvc.ListRules(c.Request.Context(), roomTypeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules})
}

func (s *Server) CreateTariffRule(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req tariffdomain.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RoomTypeID = roomTypeID

	rule, err := s.tariffSvc.CreateRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rule})
}
