package rpc

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"springforge/internal/events"
)

// EventsHandler streams generation progress of one project over a
// websocket.
type EventsHandler struct {
	broker *events.Broker
}

func NewEventsHandler(broker *events.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

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
	Type    string        `json:"type"`
	Project string        `json:"project,omitempty"`
	Event   *events.Event `json:"event,omitempty"`
}

func (h *EventsHandler) HandleEventsWS(w http.ResponseWriter, r *http.Request) {
	project := strings.TrimSpace(r.URL.Query().Get("project"))
	if project == "" {
		http.Error(w, "project is required", http.StatusBadRequest)
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
		log.Printf("events ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsWSPongWait))
	})

	sub, unsubscribe := h.broker.Subscribe(project)
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		defer cancel()
		ticker := time.NewTicker(eventsWSPingEvery)
		defer ticker.Stop()

		if err := writeEventsWS(conn, eventsWSOutbound{Type: "subscribed", Project: project}); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := writeEventsWS(conn, eventsWSOutbound{Type: "event", Project: project, Event: &ev}); err != nil {
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

	// Inbound messages are ignored; reading keeps pong handling alive and
	// notices when the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

func writeEventsWS(conn *websocket.Conn, out eventsWSOutbound) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(out)
}
