// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type client struct {
	conn *websocket.Conn
	room string
	send chan []byte
}

// Hub holds the websocket clients of this replica grouped by room.
//
// A client whose send buffer is full is disconnected instead of blocking the
// broadcast.
type Hub struct {
	mutex  sync.RWMutex
	rooms  map[string]map[*client]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{rooms: map[string]map[*client]struct{}{}, logger: logger}
}

// Size returns the number of clients in room.
func (hub *Hub) Size(room string) int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.rooms[room])
}

// Broadcast queues event for every client in its room and returns how many were reached.
func (hub *Hub) Broadcast(event Event) int {
	payload, err := json.Marshal(event)
	if err != nil {
		hub.logger.Error("realtime_broadcast_encode_failed", slog.Any("error", err))
		return 0
	}

	var slow []*client
	delivered := 0

	hub.mutex.RLock()
	for member := range hub.rooms[event.Room] {
		select {
		case member.send <- payload:
			delivered++
		default:
			slow = append(slow, member)
		}
	}
	hub.mutex.RUnlock()

	for _, member := range slow {
		hub.logger.Warn("realtime_client_dropped", slog.String("room", member.room))
		hub.leave(member)
	}
	return delivered
}

// Serve joins conn to room and pumps events to it until the peer goes away or
// ctx is cancelled. It closes conn before returning.
func (hub *Hub) Serve(ctx context.Context, conn *websocket.Conn, room string) {
	member := &client{conn: conn, room: room, send: make(chan []byte, sendBuffer)}
	hub.join(member)
	defer hub.leave(member)
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go hub.readPump(member, cancel)
	hub.writePump(ctx, member)
}

func (hub *Hub) join(member *client) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if hub.rooms[member.room] == nil {
		hub.rooms[member.room] = map[*client]struct{}{}
	}
	hub.rooms[member.room][member] = struct{}{}
}

// leave removes member once; its send channel is closed so the write pump exits.
func (hub *Hub) leave(member *client) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	members, ok := hub.rooms[member.room]
	if !ok {
		return
	}
	if _, ok := members[member]; !ok {
		return
	}

	delete(members, member)
	close(member.send)
	if len(members) == 0 {
		delete(hub.rooms, member.room)
	}
}

// readPump discards client messages and keeps the read deadline fresh on pong.
func (hub *Hub) readPump(member *client, cancel context.CancelFunc) {
	defer cancel()

	member.conn.SetReadLimit(maxMessageSize)
	_ = member.conn.SetReadDeadline(time.Now().Add(pongWait))
	member.conn.SetPongHandler(func(string) error {
		return member.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := member.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hub.logger.Debug("realtime_client_read_failed", slog.Any("error", err))
			}
			return
		}
	}
}

func (hub *Hub) writePump(ctx context.Context, member *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = member.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case payload, ok := <-member.send:
			_ = member.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = member.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := member.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = member.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := member.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
