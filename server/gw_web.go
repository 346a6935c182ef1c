package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/undeconstructed/solarquest/comms"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunWebGateway serves the REST API and the WebSocket endpoint until the
// context ends.
func RunWebGateway(ctx context.Context, session *Session, addr string, origins []string) error {
	log := log.With().Str("gw", "web").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("web listening on http://%v", ln.Addr())

	s := &http.Server{
		Handler:     newWebHandler(session, origins, log),
		ReadTimeout: time.Second * 10,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	err = s.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func newWebHandler(session *Session, origins []string, log zerolog.Logger) http.Handler {
	rh := restHandler{
		session: session,
		log:     log,
	}

	ch := commsHandler{
		session: session,
		origins: origins,
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	a := r.Group("/api")
	a.GET("/session", rh.getSession)
	a.GET("/session/snapshot", rh.getSnapshot)
	a.POST("/session/start", rh.startSession)
	r.GET("/ws", ch.serveWS)

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

type restHandler struct {
	session *Session
	log     zerolog.Logger
}

func (rh *restHandler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, rh.session.Status())
}

func (rh *restHandler) getSnapshot(c *gin.Context) {
	snap, err := rh.session.Snapshot()
	if err != nil {
		c.JSON(http.StatusConflict, comms.WrapError(err))
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (rh *restHandler) startSession(c *gin.Context) {
	err := rh.session.Start()
	if err != nil {
		rh.log.Info().Err(err).Msg("start refused")
		c.JSON(http.StatusConflict, comms.WrapError(err))
		return
	}
	c.JSON(http.StatusOK, rh.session.Status())
}
