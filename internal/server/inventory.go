package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	inventorydomain "github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

type stayRequest struct {
	CheckIn   string `json:"checkin"`
	CheckOut  string `json:"checkout"`
	Rooms     int    `json:"rooms"`
	Reference string `json:"reference"`
}

func (r stayRequest) stay() (daterange.Stay, error) {
	checkIn, err := parseDate("checkin", r.CheckIn)
	if err != nil {
		return daterange.Stay{}, err
	}
	checkOut, err := parseDate("checkout", r.CheckOut)
	if err != nil {
		return daterange.Stay{}, err
	}
	stay, err := daterange.NewStay(checkIn, checkOut)
	if err != nil {
		return daterange.Stay{}, inventorydomain.ErrInvalidStay
	}
	return stay, nil
}

type upsertCalendarDayRequest struct {
	TotalRooms   *int    `json:"total_rooms"`
	BlockedRooms int     `json:"blocked_rooms"`
	Note         *string `json:"note"`
}

type initializeCalendarRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	TotalRooms *int   `json:"total_rooms"`
}

func (s *Server) GetCalendarDay(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := parseDate("date", c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	day, err := s.inventorySvc.Get(c.Request.Context(), roomTypeID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": inventorydomain.ViewOf(date, day)})
}

// GetCalendarRange lists [from, to) with uninitialized nights marked as such.
func (s *Server) GetCalendarRange(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	stay, err := stayRequest{CheckIn: c.Query("from"), CheckOut: c.Query("to")}.stay()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	days, err := s.inventorySvc.GetRange(c.Request.Context(), roomTypeID, stay)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (s *Server) UpsertCalendarDay(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := parseDate("date", c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req upsertCalendarDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.TotalRooms == nil {
		AbortWithError(c, newValidationError("total_rooms", "required", "total_rooms is required"))
		return
	}

	day, err := s.inventorySvc.Upsert(c.Request.Context(), inventorydomain.UpsertRequest{
		RoomTypeID:   roomTypeID,
		Date:         date,
		TotalRooms:   *req.TotalRooms,
		BlockedRooms: req.BlockedRooms,
		Note:         trimmedNote(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": day})
}

func (s *Server) DeleteCalendarDay(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := parseDate("date", c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.inventorySvc.Delete(c.Request.Context(), roomTypeID, date); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reserve is the authoritative gate. A prior availability check does not
// hold rooms, so callers must handle insufficient_capacity here.
func (s *Server) Reserve(c *gin.Context) {
	roomTypeID, req, stay, ok := s.bindStay(c)
	if !ok {
		return
	}

	days, err := s.inventorySvc.Reserve(c.Request.Context(), inventorydomain.ReserveRequest{
		RoomTypeID: roomTypeID,
		Stay:       stay,
		Rooms:      req.Rooms,
		Reference:  strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (s *Server) Release(c *gin.Context) {
	roomTypeID, req, stay, ok := s.bindStay(c)
	if !ok {
		return
	}

	days, err := s.inventorySvc.Release(c.Request.Context(), inventorydomain.ReleaseRequest{
		RoomTypeID: roomTypeID,
		Stay:       stay,
		Rooms:      req.Rooms,
		Reference:  strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (s *Server) Block(c *gin.Context) {
	roomTypeID, req, stay, ok := s.bindStay(c)
	if !ok {
		return
	}

	days, err := s.inventorySvc.Block(c.Request.Context(), inventorydomain.BlockRequest{
		RoomTypeID: roomTypeID,
		Stay:       stay,
		Rooms:      req.Rooms,
		Reason:     strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (s *Server) Unblock(c *gin.Context) {
	roomTypeID, req, stay, ok := s.bindStay(c)
	if !ok {
		return
	}

	days, err := s.inventorySvc.Unblock(c.Request.Context(), inventorydomain.BlockRequest{
		RoomTypeID: roomTypeID,
		Stay:       stay,
		Rooms:      req.Rooms,
		Reason:     strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (s *Server) InitializeCalendar(c *gin.Context) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req initializeCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.TotalRooms == nil {
		AbortWithError(c, newValidationError("total_rooms", "required", "total_rooms is required"))
		return
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.inventorySvc.InitializeRange(c.Request.Context(), inventorydomain.InitializeRequest{
		RoomTypeID: roomTypeID,
		TotalRooms: *req.TotalRooms,
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) bindStay(c *gin.Context) (snowflake.ID, stayRequest, daterange.Stay, bool) {
	roomTypeID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return 0, stayRequest{}, daterange.Stay{}, false
	}

	var req stayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return 0, stayRequest{}, daterange.Stay{}, false
	}
	stay, err := req.stay()
	if err != nil {
		AbortWithError(c, err)
		return 0, stayRequest{}, daterange.Stay{}, false
	}
	return roomTypeID, req, stay, true
}

func trimmedNote(note *string) *string {
	if note == nil {
		return nil
	}
	value := strings.TrimSpace(*note)
	if value == "" {
		return nil
	}
	return &value
}
