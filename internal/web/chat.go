package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/content"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/metrics"
	"github.com/erazemk/auberge/internal/model"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ChatPage handles GET /admin/chat. ?conversation={id} opens a conversation,
// ?q and ?status filter the list and ?search filters the open thread.
func (s *Server) ChatPage(w http.ResponseWriter, r *http.Request) {
	session := chat.NewSession(GetViewer(r.Context()).Client)
	defer session.Close()

	pd := pageData(w, r, "Discussions")
	if err := session.LoadConversations(r.Context(), loader.Visible); err != nil {
		slog.Warn("failed to load conversations", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les conversations."
	}

	q := r.URL.Query()
	if id, err := strconv.ParseInt(q.Get("conversation"), 10, 64); err == nil && id > 0 {
		if err := session.Open(r.Context(), id); err != nil {
			slog.Warn("failed to open conversation", "conversation", id, "error", apiclient.Message(err))
			pd.Error = "Impossible de charger la conversation."
		}
	}

	snap := session.Snapshot()
	messages := snap.Messages
	if search := q.Get("search"); search != "" {
		messages = session.SearchMessages(search)
	}

	var selected *model.Conversation
	for _, c := range snap.Conversations {
		if c.ID == snap.Selected {
			selected = &c
			break
		}
	}

	s.Templates.Render(w, "chat.html", &struct {
		PageData
		Conversations []model.Conversation
		Selected      *model.Conversation
		Messages      []model.Message
		Unread        int
		Query         string
		Status        string
		Search        string
	}{
		PageData:      pd,
		Conversations: session.FilterConversations(q.Get("q"), q.Get("status")),
		Selected:      selected,
		Messages:      messages,
		Unread:        snap.Unread(),
		Query:         q.Get("q"),
		Status:        q.Get("status"),
		Search:        q.Get("search"),
	})
}

// ChatMessageSubmit handles POST /admin/chat/{id}/messages, the form
// fallback of the live chat.
func (s *Server) ChatMessageSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/chat?conversation=%d", id)

	session := chat.NewSession(GetViewer(r.Context()).Client)
	defer session.Close()
	if err := session.Open(r.Context(), id); err != nil {
		done(w, r, back, err, "")
		return
	}
	session.SetDraft(r.FormValue("content"))
	if _, err := session.Send(r.Context()); err != nil {
		slog.Warn("failed to send chat message", "conversation", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	done(w, r, back, nil, "")
}

// ChatCloseSubmit handles POST /admin/chat/{id}/close.
func (s *Server) ChatCloseSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/chat?conversation=%d", id)

	viewer := GetViewer(r.Context())
	session := chat.NewSession(viewer.Client)
	defer session.Close()
	if err := session.CloseConversation(r.Context(), id); err != nil {
		slog.Warn("failed to close conversation", "conversation", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("conversation closed", "user", viewer.Session.Email, "conversation", id)
	done(w, r, back, nil, "Conversation fermée.")
}

// chatCommand is sent by the browser over the chat socket.
type chatCommand struct {
	Type           string `json:"type"` // select, deselect, draft, send, close
	ConversationID int64  `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

type messageView struct {
	ID         int64  `json:"id"`
	SenderRole string `json:"sender_role"`
	SenderName string `json:"sender_name,omitempty"`
	FromStaff  bool   `json:"from_staff"`
	HTML       string `json:"html"`
	CreatedAt  string `json:"created_at"`
}

// chatFrame is sent to the browser over the chat socket.
type chatFrame struct {
	Type          string               `json:"type"` // snapshot, error
	Conversations []model.Conversation `json:"conversations,omitempty"`
	Selected      int64                `json:"selected,omitempty"`
	Messages      []messageView        `json:"messages,omitempty"`
	Draft         string               `json:"draft,omitempty"`
	Loading       bool                 `json:"loading,omitempty"`
	Sending       bool                 `json:"sending,omitempty"`
	Unread        int                  `json:"unread"`
	Error         string               `json:"error,omitempty"`
}

func newChatFrame(snap chat.Snapshot) chatFrame {
	msgs := make([]messageView, len(snap.Messages))
	for i, m := range snap.Messages {
		msgs[i] = messageView{
			ID:         m.ID,
			SenderRole: m.SenderRole,
			SenderName: m.SenderName,
			FromStaff:  m.FromStaff(),
			HTML:       string(content.Render(m.Content)),
			CreatedAt:  m.CreatedAt.Local().Format("02.01 15:04"),
		}
	}
	return chatFrame{
		Type:          "snapshot",
		Conversations: snap.Conversations,
		Selected:      snap.Selected,
		Messages:      msgs,
		Draft:         snap.Draft,
		Loading:       snap.Loading,
		Sending:       snap.Sending,
		Unread:        snap.Unread(),
	}
}

// ChatSocket handles GET /admin/chat/ws. Each socket owns a chat session:
// the conversation list refreshes every conversations interval and the
// selected conversation every chat interval, and every change is pushed
// as a snapshot frame.
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	viewer := GetViewer(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("chat socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.LiveConnections.WithLabelValues("ws").Inc()
	defer metrics.LiveConnections.WithLabelValues("ws").Dec()

	ctx, cancel := context.WithCancel(context.Background())
	session := chat.NewSession(viewer.Client).WithIntervals(s.Polling.Chat, s.Polling.Conversations)
	snapshots := make(chan chat.Snapshot, 1)
	failures := make(chan string, 4)
	session.OnChange(func(snap chat.Snapshot) { offer(snapshots, snap) })

	commands := make(chan chatCommand)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		session.Close()
	}()

	// Reader: the only goroutine reading the socket.
	go func() {
		defer cancel()
		conn.SetReadLimit(wsMaxMessage)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			var cmd chatCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			select {
			case commands <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Worker: runs commands one at a time against the session.
	initial, _ := strconv.ParseInt(r.URL.Query().Get("conversation"), 10, 64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		report := func(err error) {
			if err == nil || ctx.Err() != nil {
				return
			}
			select {
			case failures <- errorText(err):
			default:
			}
		}

		report(session.LoadConversations(ctx, loader.Visible))
		session.StartConversationPolling(ctx)
		if initial > 0 {
			report(session.Select(ctx, initial))
		}

		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-commands:
				report(runChatCommand(ctx, session, cmd))
			}
		}
	}()

	// Writer: this goroutine owns every write to the socket.
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		var frame chatFrame
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			continue
		case snap := <-snapshots:
			frame = newChatFrame(snap)
		case msg := <-failures:
			frame = chatFrame{Type: "error", Error: msg}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

func runChatCommand(ctx context.Context, session *chat.Session, cmd chatCommand) error {
	switch cmd.Type {
	case "select":
		return session.Select(ctx, cmd.ConversationID)
	case "deselect":
		session.Deselect()
	case "draft":
		session.SetDraft(cmd.Content)
	case "send":
		if cmd.Content != "" {
			session.SetDraft(cmd.Content)
		}
		_, err := session.Send(ctx)
		return err
	case "close":
		return session.CloseConversation(ctx, cmd.ConversationID)
	default:
		slog.Debug("unknown chat command", "type", cmd.Type)
	}
	return nil
}
