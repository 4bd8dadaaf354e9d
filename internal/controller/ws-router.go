package controller

import (
	"github.com/datenight/server/pkg/wsrouter"
)

func (c controller) commonRouter() *wsrouter.WSRouter[*client] {
	mux := wsrouter.New[*client]()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw())

	wsrouter.Handle(mux, "set ua", c.handleSetUserAgent)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "resume", c.handleResume)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "change nick", c.handleChangeNick)
	wsrouter.Handle(mux, "disconnect request", c.handleDisconnectRequest)
	wsrouter.Handle(mux, "latency_ping", c.handleLatencyPing)
	wsrouter.Handle(mux, "latency_pong", c.handleLatencyPong)

	return mux
}

func (c controller) getPublishRouter() *wsrouter.WSRouter[*client] {
	mux := c.commonRouter()

	wsrouter.Handle(mux, "update state", c.handleUpdateState)

	// chat belongs to subscribers
	wsrouter.Handle(mux, "broadcast message", c.handleIgnored)
	wsrouter.Handle(mux, "help", c.handleIgnored)

	return mux
}

func (c controller) getSubscribeRouter() *wsrouter.WSRouter[*client] {
	mux := c.commonRouter()

	wsrouter.Handle(mux, "update state", c.handleForbiddenUpdateState)
	wsrouter.Handle(mux, "broadcast message", c.handleBroadcastMessage)
	wsrouter.Handle(mux, "help", c.handleHelp)

	return mux
}
