package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hrflow/internal/wizard"
)

const (
	eventsWSWriteWait = 10 * time.Second
	eventsWSPongWait  = 60 * time.Second
	eventsWSPingEvery = (eventsWSPongWait * 9) / 10
)

var eventsWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type eventsWSOutbound struct {
	Type      string `json:"type"`
	WizardID  string `json:"wizardId,omitempty"`
	Message   string `json:"message,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Percent   int    `json:"percent,omitempty"`
	Code      string `json:"code,omitempty"`
}

// EventsHandler streams wizard progress over a websocket.
type EventsHandler struct {
	manager *wizard.Manager
	logger  *zap.Logger
}

func NewEventsHandler(manager *wizard.Manager, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{manager: manager, logger: logger}
}

// HandleEventsWS serves GET /ws/wizards?wizard_id=...
func (h *EventsHandler) HandleEventsWS(w http.ResponseWriter, r *http.Request) {
	wizardID := strings.TrimSpace(r.URL.Query().Get("wizard_id"))
	if wizardID == "" {
		http.Error(w, "wizard_id is required", http.StatusBadRequest)
		return
	}

	events, done, err := h.manager.Events(wizardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := eventsWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(eventsWSPongWait)); err != nil {
		h.logger.Warn("events ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsWSPongWait))
	})

	writeCh := make(chan eventsWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(eventsWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushEventsWS(writeCh, eventsWSOutbound{Type: "subscribed", WizardID: wizardID})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				pushEventsWS(writeCh, eventsWSOutbound{Type: "closed", WizardID: wizardID})
				cancel()
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				pushEventsWS(writeCh, eventsWSOutbound{
					Type:      string(ev.Type),
					WizardID:  ev.WizardID,
					Message:   ev.Message,
					Processed: ev.Processed,
					Total:     ev.Total,
					Percent:   ev.Percent,
				})
			}
		}
	}()

	// The read loop only drains control frames and client pings; closing
	// the connection ends the subscription.
	for {
		var in struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if strings.EqualFold(strings.TrimSpace(in.Type), "ping") {
			pushEventsWS(writeCh, eventsWSOutbound{Type: "pong"})
		}
	}
}

// pushEventsWS never blocks: when the buffer is full the oldest event is
// dropped to make room for the newest.
func pushEventsWS(writeCh chan eventsWSOutbound, out eventsWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
