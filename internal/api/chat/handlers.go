// internal/api/chat/handlers.go
package chat

import (
	"net/http"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	chatbot "github.com/courtsidehq/courtside/internal/chat"
)

var assistant *chatbot.Assistant

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(a *chatbot.Assistant) {
	assistant = a
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// POST /api/v1/chat
func HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	reply, err := assistant.Answer(r.Context(), req.Message)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to answer", err))
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
