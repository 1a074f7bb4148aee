package http

import (
	stderrors "errors"
	"net/http"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
	"signalmesh/internal/core/services"
	"signalmesh/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ConferenceHandler exposes the conferencing operations of the local agent
// over HTTP. Every route acts on behalf of the node's own identity; remote
// agents are reached through the relay, never through this API.
type ConferenceHandler struct {
	self       domain.Identity
	conference ports.ConferenceService
	presence   ports.PresenceService
	ledger     ports.Ledger
	caps       *services.CapabilityTable
}

func NewConferenceHandler(
	self domain.Identity,
	conference ports.ConferenceService,
	presence ports.PresenceService,
	ledger ports.Ledger,
	caps *services.CapabilityTable,
) *ConferenceHandler {
	return &ConferenceHandler{
		self:       self,
		conference: conference,
		presence:   presence,
		ledger:     ledger,
		caps:       caps,
	}
}

func (h *ConferenceHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms/:hash", h.GetRoom)
		api.POST("/rooms/:hash/join", h.JoinRoom)
		api.POST("/rooms/:hash/leave", h.LeaveRoom)
		api.POST("/rooms/:hash/signal", h.SendSignal)
		api.GET("/presence", h.GetPresence)
		api.GET("/capabilities", h.GetCapabilities)
	}
}

func (h *ConferenceHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Participants []domain.Identity `json:"participants" binding:"required,min=1"`
		Title        string            `json:"title" binding:"required,max=200"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	room, hash, err := h.conference.CreateRoom(c.Request.Context(), req.Participants, req.Title)
	if err != nil {
		c.Error(appError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"room": room,
		"hash": hash,
	})
}

func (h *ConferenceHandler) GetRoom(c *gin.Context) {
	hash := domain.Hash(c.Param("hash"))

	record, err := h.ledger.Get(c.Request.Context(), hash)
	if err != nil {
		c.Error(appError(err))
		return
	}
	entry, err := domain.DecodeEntry(domain.EntryTypeRoom, record.Entry)
	if err != nil || record.EntryType != domain.EntryTypeRoom {
		c.Error(errors.NewNotFoundError("room"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room": entry,
		"hash": hash,
	})
}

func (h *ConferenceHandler) JoinRoom(c *gin.Context) {
	hash := domain.Hash(c.Param("hash"))

	if err := h.conference.JoinRoom(c.Request.Context(), hash); err != nil {
		c.Error(appError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "joined",
	})
}

func (h *ConferenceHandler) LeaveRoom(c *gin.Context) {
	hash := domain.Hash(c.Param("hash"))

	if err := h.conference.LeaveRoom(c.Request.Context(), hash); err != nil {
		c.Error(appError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "left",
	})
}

func (h *ConferenceHandler) SendSignal(c *gin.Context) {
	var req struct {
		RoomID      string                `json:"room_id" binding:"required,max=100"`
		Target      domain.Identity       `json:"target" binding:"required"`
		PayloadType domain.CallSignalType `json:"payload_type" binding:"required"`
		Data        string                `json:"data"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	err := h.conference.SendSignal(c.Request.Context(), req.RoomID, req.Target, req.PayloadType, req.Data)
	if err != nil {
		c.Error(appError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
	})
}

func (h *ConferenceHandler) GetPresence(c *gin.Context) {
	peers, err := h.presence.ActivePeers(c.Request.Context(), h.self)
	if err != nil {
		c.Error(appError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"self":         h.self,
		"active_peers": peers,
	})
}

func (h *ConferenceHandler) GetCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"grants": h.caps.Grants(),
	})
}

// appError maps core errors onto HTTP responses.
func appError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, domain.ErrNotFound):
		return errors.WrapError(err, errors.ErrCodeNotFound, "record not found", http.StatusNotFound)
	case stderrors.Is(err, domain.ErrInvalidPayload), stderrors.Is(err, domain.ErrMissingField):
		return errors.WrapError(err, errors.ErrCodeInvalidInput, err.Error(), http.StatusBadRequest)
	case stderrors.Is(err, domain.ErrSerialization):
		return errors.WrapError(err, errors.ErrCodeUnprocessable, err.Error(), http.StatusUnprocessableEntity)
	default:
		return errors.WrapError(err, errors.ErrCodeInternal, "internal error", http.StatusInternalServerError)
	}
}
