package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/service"
)

// ChatHandler serves conversations and their messages.
type ChatHandler struct {
    responder
    Conversations *service.ConversationService
    Messages      *service.MessageService
}

func NewChatHandler(convs *service.ConversationService, msgs *service.MessageService, logger *slog.Logger) *ChatHandler {
    return &ChatHandler{responder: newResponder(logger), Conversations: convs, Messages: msgs}
}

// Start handles POST /v1/chats/start.  It returns the conversation of the
// item, creating it on first contact.
func (h *ChatHandler) Start(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    var req startChatReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    conv, err := h.Conversations.Start(ctx, req.ItemID, uid)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toConversation(conv))
}

// List handles GET /v1/chats.
func (h *ChatHandler) List(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    convs, err := h.Conversations.ListForUser(ctx, uid)
    if err != nil {
        return h.fail(c, err)
    }
    out := make([]conversationResp, 0, len(convs))
    for i := range convs {
        out = append(out, toConversation(&convs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListMessages handles GET /v1/chats/:id/messages?limit=&offset=.
func (h *ChatHandler) ListMessages(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    limit, err := queryInt(c, "limit")
    if err != nil {
        return h.fail(c, err)
    }
    offset, err := queryInt(c, "offset")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    msgs, err := h.Messages.List(ctx, id, uid, limit, offset)
    if err != nil {
        return h.fail(c, err)
    }
    out := make([]messageResp, 0, len(msgs))
    for i := range msgs {
        out = append(out, toMessage(&msgs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Send handles POST /v1/chats/:id/messages.
func (h *ChatHandler) Send(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req sendMessageReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    m, err := h.Messages.Append(ctx, id, uid, service.NewMessage{Text: req.Text, Type: req.Type, AttachmentURL: req.AttachmentURL})
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, toMessage(m))
}

// MarkRead handles POST /v1/chats/:id/read.
func (h *ChatHandler) MarkRead(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    n, err := h.Messages.MarkRead(ctx, id, uid)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

// Leave handles DELETE /v1/chats/:id/participation.
func (h *ChatHandler) Leave(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Conversations.Leave(ctx, id, uid); err != nil {
        return h.fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
