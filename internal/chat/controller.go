// Package chat maintains the ordered transcript for one conversation and
// delivers outbound messages through the authenticated request layer.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shezi1344/taskflow-cli/internal/api"
	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/model"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

// greeting seeds every new transcript, mirroring the assistant's opening
// message in the widget.
const greeting = "Hello! I'm your TaskFlow AI assistant. You can ask me to " +
	"manage your tasks like adding, listing, completing, or deleting tasks. " +
	"How can I help you today?"

type sendRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id"`
}

// Controller owns the state of a single conversation. The conversation id is
// assigned by the server on the first successful exchange and never
// renegotiated for the lifetime of the controller.
type Controller struct {
	client *api.Client
	store  token.Store
	log    *zap.Logger

	mu             sync.Mutex
	conversationID *int64
	messages       []model.Message
	pending        bool
	nextID         int64
}

// NewController returns a controller with the greeting already in the
// transcript.
func NewController(client *api.Client, store token.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{client: client, store: store, log: log}
	c.append(model.RoleAssistant, greeting)
	return c
}

// Messages returns a defensive copy of the transcript in insertion order.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ConversationID returns the server-assigned id, once fixed.
func (c *Controller) ConversationID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversationID == nil {
		return 0, false
	}
	return *c.conversationID, true
}

// Pending reports whether a send is in flight. Advisory only; callers are
// expected to disable input while true.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Send delivers text to the conversation endpoint and returns the transcript
// entries appended by the exchange. Blank input, an in-flight send, or a
// missing user identifier make it a no-op. Delivery failures are converted
// into a synthesized assistant message; the optimistic user message is never
// rolled back.
func (c *Controller) Send(ctx context.Context, text string) []model.Message {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	userID, ok := token.SubjectFrom(c.store)
	if !ok {
		c.log.Debug("send skipped: no resolvable user id")
		return nil
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil
	}
	c.pending = true
	convID := c.conversationID
	userMsg := c.appendLocked(model.RoleUser, text)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	var reply model.ChatReply
	err := c.client.DoJSON(ctx, http.MethodPost,
		fmt.Sprintf("/api/%s/chat", userID),
		api.Options{Body: sendRequest{Message: text, ConversationID: convID}},
		&reply)
	if err != nil {
		c.log.Warn("send failed", zap.Error(err))
		errMsg := c.append(model.RoleAssistant, fmt.Sprintf(
			"Sorry, I encountered an error: %s. Please check your connection and try again.",
			err.Error()))
		return []model.Message{userMsg, errMsg}
	}

	c.mu.Lock()
	if c.conversationID == nil {
		id := reply.ConversationID
		c.conversationID = &id
	} else if *c.conversationID != reply.ConversationID {
		// First id wins; a divergent id on a later call indicates a
		// protocol inconsistency on the server side.
		c.log.Warn("server returned divergent conversation id",
			zap.Int64("have", *c.conversationID),
			zap.Int64("got", reply.ConversationID),
		)
	}
	assistantMsg := c.appendLocked(model.RoleAssistant, reply.Response)
	c.mu.Unlock()

	return []model.Message{userMsg, assistantMsg}
}

type historyResponse struct {
	Messages []model.Message `json:"messages"`
}

// History fetches the server-side transcript for the established
// conversation. Before the first successful exchange there is nothing to
// fetch and History returns an empty result without a network call.
func (c *Controller) History(ctx context.Context) ([]model.Message, error) {
	userID, ok := token.SubjectFrom(c.store)
	if !ok {
		return nil, errs.New(errs.KindUnauthenticated,
			"authentication token not found; please sign in again")
	}
	c.mu.Lock()
	convID := c.conversationID
	c.mu.Unlock()
	if convID == nil {
		return nil, nil
	}

	var resp historyResponse
	err := c.client.DoJSON(ctx, http.MethodGet,
		fmt.Sprintf("/api/%s/conversations/%d/messages", userID, *convID),
		api.Options{}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Controller) append(role model.Role, content string) model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(role, content)
}

func (c *Controller) appendLocked(role model.Role, content string) model.Message {
	c.nextID++
	m := model.Message{
		ID:        c.nextID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, m)
	return m
}
