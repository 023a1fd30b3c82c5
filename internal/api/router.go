package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blackjack-service/internal/service"
	"blackjack-service/internal/ws"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/blackjack/v1")
	{
		gameGroup := v1.Group("/game")
		{
			gameGroup.GET("/state", handler.GetState)
			gameGroup.POST("/bet", handler.PlaceBet)
			gameGroup.POST("/bet/clear", handler.ClearBet)
			gameGroup.POST("/deal", handler.Deal)
			gameGroup.POST("/new", handler.NewGame)

			gameGroup.POST("/hands/:index/hit", handler.handAction("hit"))
			gameGroup.POST("/hands/:index/stand", handler.handAction("stand"))
			gameGroup.POST("/hands/:index/double", handler.handAction("double"))
			gameGroup.POST("/hands/:index/split", handler.handAction("split"))
		}

		v1.GET("/history", handler.ListHistory)
	}

	r.GET("/ws/game", wsHandler.HandleGameWS)
}

type placeBetBody struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

func (h *Handler) GetState(c *gin.Context) {
	response.Success(c, h.services.Game.State(c.Request.Context()))
}

func (h *Handler) PlaceBet(c *gin.Context) {
	var body placeBetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.services.Game.PlaceBet(c.Request.Context(), body.Amount)
	if err != nil {
		writeGameError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) ClearBet(c *gin.Context) {
	state, err := h.services.Game.ClearBet(c.Request.Context())
	if err != nil {
		writeGameError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) Deal(c *gin.Context) {
	state, err := h.services.Game.Deal(c.Request.Context())
	if err != nil {
		writeGameError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) NewGame(c *gin.Context) {
	response.Success(c, h.services.Game.NewGame(c.Request.Context()))
}

func (h *Handler) handAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil || index < 0 {
			response.Error(c, http.StatusBadRequest, "invalid hand index")
			return
		}

		ctx := c.Request.Context()
		var state interface{}
		switch action {
		case "hit":
			state, err = h.services.Game.Hit(ctx, index)
		case "stand":
			state, err = h.services.Game.Stand(ctx, index)
		case "double":
			state, err = h.services.Game.Double(ctx, index)
		case "split":
			state, err = h.services.Game.Split(ctx, index)
		}
		if err != nil {
			writeGameError(c, err)
			return
		}
		response.Success(c, state)
	}
}

func (h *Handler) ListHistory(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := parsePositiveIntQuery(c, "pageSize", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.History.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, result)
}

func writeGameError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, appErr.ErrInsufficientFunds):
		status = http.StatusBadRequest
	case errors.Is(err, appErr.ErrEmptyBetDeal):
		status = http.StatusBadRequest
	case errors.Is(err, appErr.ErrInvalidAction):
		status = http.StatusConflict
	}
	response.Error(c, status, err.Error())
}

func parsePositiveIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, nil
}
