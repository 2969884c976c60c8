package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripmate/internal/models/request_models"
	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

type ChatController struct {
	chatService services.ChatServiceInterface
}

func NewChatController(chatService services.ChatServiceInterface) *ChatController {
	return &ChatController{
		chatService: chatService,
	}
}

// StartSession godoc
// @Summary Start a planning conversation
// @Description Opens a session and returns the greeting with the first question
// @Tags Chat
// @Produce json
// @Success 200 {object} response_models.ChatResponse
// @Router /api/chat/sessions [post]
func (cc *ChatController) StartSession(c *gin.Context) {
	userID := c.GetString("user_id")

	res, err := cc.chatService.StartSession(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Session started")
}

// SendMessage godoc
// @Summary Send a user message
// @Description Runs one conversation turn and returns the assistant reply
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body request_models.SendMessageRequest true "Session ID and message"
// @Success 200 {object} response_models.ChatResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/chat/message [post]
func (cc *ChatController) SendMessage(c *gin.Context) {
	var req request_models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "session_id is required")
		return
	}

	res, err := cc.chatService.SendMessage(c.Request.Context(), req.SessionID, c.GetString("user_id"), req.Message)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "")
}

func (cc *ChatController) GetSession(c *gin.Context) {
	res, err := cc.chatService.GetSession(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Session fetched successfully")
}

func (cc *ChatController) ResetSession(c *gin.Context) {
	res, err := cc.chatService.ResetSession(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Session reset")
}
