package controller

import (
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.wsLoggerMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, TypeAlive, c.handleAlive)
	for _, action := range codec.Actions() {
		wsrouter.Handle(mux, action.String(), c.handleSync(action))
	}

	return mux
}
