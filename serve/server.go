package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/learn"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = global.Log

//Banner is the body served at the root path.
const Banner = "Stock Prediction API is running. Use POST /predict with JSON."

//Server serves predictions of a trained model over HTTP.
type Server struct {
	router *gin.Engine
	model  *learn.Artifact
	addr   string
	server *http.Server
}

//NewServer builds the router around a loaded model.
func NewServer(m *learn.Artifact, addr string) *Server {
	gin.SetMode(conf.Args.Serve.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog())
	router.Use(instrument())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	s := &Server{router: router, model: m, addr: addr}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Banner)
	})
	s.router.GET("/health", s.health)
	s.router.POST("/predict", s.predict)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

//Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

//Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("prediction api listening on %s", s.addr)
		if e := s.server.ListenAndServe(); e != nil && e != http.ErrServerClosed {
			errc <- errors.Wrap(e, "failed to start server")
		}
		close(errc)
	}()
	select {
	case e := <-errc:
		return e
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("stopping prediction api")
	return errors.WithStack(s.server.Shutdown(sctx))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"model":    s.model.Kind,
		"run_id":   s.model.RunID,
		"features": len(s.model.Features),
		"trained":  s.model.TrainedAt,
	})
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s %d %s %v", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
