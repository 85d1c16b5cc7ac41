/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package server exposes read-only views of a running watch: the seen-set,
a health check and the Prometheus metrics.
*/
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	v "gitlab.com/davidxarnold/hostwatch/version"
)

const shutdownTimeout = 5 * time.Second

type response struct {
	Ok    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type seenResponse struct {
	Count int             `json:"count"`
	Hosts []core.SeenHost `json:"hosts"`
}

// Server serves the listener endpoints.
type Server struct {
	http *http.Server
}

// NewRouter registers the routes. The seen-set is only read through
// Snapshot so the polling loop keeps sole ownership.
func NewRouter(seen *core.SeenSet, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, response{Ok: true, Data: gin.H{"version": v.Version}})
	})

	router.GET("/seen", func(c *gin.Context) {
		hosts := seen.Snapshot()
		c.JSON(http.StatusOK, response{Ok: true, Data: seenResponse{Count: len(hosts), Hosts: hosts}})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response{Ok: false, Error: "not found"})
	})

	return router
}

// New returns a server listening on addr.
func New(addr string, seen *core.SeenSet, gatherer prometheus.Gatherer) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(seen, gatherer),
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("listen", s.http.Addr).Info("serving seen-set and metrics")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
