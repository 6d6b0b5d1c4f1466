// Package http exposes the relay's HTTP surface: health and stats
// endpoints plus a WebSocket route speaking the same line protocol as
// the TCP transport.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/core"
	"github.com/arnvid/norsechat/internal/session"
)

// NewServer builds the HTTP server with its routes.
func NewServer(addr string, readHeaderTimeout time.Duration, handler *session.Handler, reg *core.Registry, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", healthHandler)
	r.GET("/stats", statsHandler(reg))
	r.GET("/ws", NewWSHandler(handler, logger).handle)

	return &stdhttp.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// StatsResponse is the read-only registry snapshot served on /stats.
type StatsResponse struct {
	Clients     int            `json:"clients"`
	Rooms       int            `json:"rooms"`
	BusiestRoom string         `json:"busiest_room"`
	RoomSizes   map[string]int `json:"room_sizes"`
}

func statsHandler(reg *core.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := reg.Stats()
		sizes := make(map[string]int)
		for room, members := range reg.RoomMembers() {
			sizes[room] = len(members)
		}
		c.JSON(stdhttp.StatusOK, StatsResponse{
			Clients:     st.Clients,
			Rooms:       st.Rooms,
			BusiestRoom: st.BusiestRoom,
			RoomSizes:   sizes,
		})
	}
}
