package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/api/request"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/assistant"
)

const (
	msgMessageRequired = "Message is required and must be a string"
	msgChatFailed      = "Failed to process your request. Please try again."

	codeLLMTimeout     = "llm_timeout"
	codeLLMUnavailable = "llm_unavailable"
)

// Asker answers one analytics question.
type Asker interface {
	Ask(ctx context.Context, question string, progress chan<- assistant.Event) (string, error)
}

type Chat struct {
	asker Asker
}

func NewChat(asker Asker) *Chat {
	return &Chat{asker: asker}
}

type chatReply struct {
	Reply string `json:"reply"`
}

// streamMessage is one frame sent on the chat websocket. Progress frames
// carry the orchestrator event; the last frame of a question has type
// "response" or "error".
type streamMessage struct {
	Type   string `json:"type"`
	Tool   string `json:"tool,omitempty"`
	CallID string `json:"callId,omitempty"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

func failureCode(err error) string {
	if errors.Is(err, assistant.ErrTimeout) {
		return codeLLMTimeout
	}
	return codeLLMUnavailable
}

// Ask answers a question in one request/response round trip.
func (h *Chat) Ask(w http.ResponseWriter, r *http.Request) {
	var req request.Chat
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, msgMessageRequired)
		return
	}

	reply, err := h.asker.Ask(r.Context(), req.Message, nil)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("chat request failed")
		response.WriteErrorCode(w, http.StatusInternalServerError, failureCode(err), msgChatFailed)
		return
	}
	response.WriteJSON(w, http.StatusOK, chatReply{Reply: reply})
}

// Stream upgrades to a websocket and answers questions until the client
// disconnects, forwarding orchestration progress as it happens.
func (h *Chat) Stream(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // the dashboard is served from another origin in development
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	ctx := r.Context()
	for {
		var req request.Chat
		if err := wsjson.Read(ctx, ws, &req); err != nil {
			var ce websocket.CloseError
			if !errors.As(err, &ce) && ctx.Err() == nil {
				log.Debug().Err(err).Msg("chat stream read ended")
			}
			break
		}
		if req.Message == "" {
			if err := wsjson.Write(ctx, ws, streamMessage{Type: "error", Error: msgMessageRequired}); err != nil {
				return
			}
			continue
		}
		if err := h.answer(ctx, ws, req.Message); err != nil {
			log.Debug().Err(err).Msg("chat stream write failed")
			return
		}
	}

	ws.Close(websocket.StatusNormalClosure, "")
}

// answer runs one question, forwarding progress events, and writes the final
// frame. It returns only websocket write errors.
func (h *Chat) answer(ctx context.Context, ws *websocket.Conn, question string) error {
	events := make(chan assistant.Event, 16)
	forwarded := make(chan error, 1)
	go func() {
		var werr error
		for e := range events {
			if werr != nil {
				continue
			}
			werr = wsjson.Write(ctx, ws, streamMessage{Type: e.Type, Tool: e.Tool, CallID: e.CallID})
		}
		forwarded <- werr
	}()

	reply, err := h.asker.Ask(ctx, question, events)
	close(events)
	if werr := <-forwarded; werr != nil {
		return werr
	}

	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("chat stream request failed")
		return wsjson.Write(ctx, ws, streamMessage{Type: "error", Error: msgChatFailed, Code: failureCode(err)})
	}
	return wsjson.Write(ctx, ws, streamMessage{Type: "response", Reply: reply})
}
