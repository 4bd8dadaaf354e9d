package inmemory

import (
	"log/slog"
	"sync"

	"github.com/datenight/server/internal/repository/connection"
)

type repo struct {
	connList map[connection.Sender]string
	idList   map[string]connection.Sender
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[connection.Sender]string),
		idList:   make(map[string]connection.Sender),
	}
}

func (r *repo) Add(conn connection.Sender, sessionId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId)
	if _, ok := r.connList[conn]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}
	if _, ok := r.idList[sessionId]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = sessionId
	r.idList[sessionId] = conn

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) RemoveBySessionId(sessionId string) error {
	funcName := "connection.inmemory.RemoveBySessionId"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId)
	conn, ok := r.idList[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	conn.Close()

	delete(r.connList, conn)
	delete(r.idList, sessionId)

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) GetConn(sessionId string) (connection.Sender, error) {
	funcName := "connection.inmemory.GetConn"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.Debug(funcName, "session_id", sessionId)
	conn, ok := r.idList[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	slog.Debug(funcName, "result", "OK")
	return conn, nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.idList)
}
