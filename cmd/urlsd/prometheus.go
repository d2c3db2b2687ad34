//
// Copyright (c) 2026 urlsd contributors (see AUTHORS file)
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// * Neither the name of urlsd nor the names of its
//   contributors may be used to endorse or promote products derived from
//   this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
//

package main

import (
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsHandler struct {
	registry *prometheus.Registry
	listener net.Listener
	path     string

	requests      *prometheus.CounterVec
	loginRequests *prometheus.CounterVec
	loginClaims   *prometheus.CounterVec
}

func newMetricsHandler(config *PrometheusConfig) (m *MetricsHandler, err error) {
	m = &MetricsHandler{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsd_http_requests_total",
			Help: "Number of handled HTTP requests.",
		}, []string{"method", "path", "status"}),
		loginRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsd_login_requests_total",
			Help: "Number of requested login codes.",
		}, []string{"result"}),
		loginClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urlsd_login_claims_total",
			Help: "Number of attempted login-code claims.",
		}, []string{"result"}),
	}
	if config == nil {
		return
	}
	m.registry = prometheus.NewRegistry()
	m.path = "/metrics"
	if config.Path != "" {
		m.path = config.Path
	}
	if config.Listen != "" {
		m.listener, err = net.Listen("tcp", config.Listen)
		if err != nil {
			return
		}
		wl.Printf("prometheus: listening on '%s'", config.Listen)
	}

	m.registry.MustRegister(collectors.NewBuildInfoCollector())
	m.registry.MustRegister(m.requests, m.loginRequests, m.loginClaims)
	return
}

// count is installed as gin middleware and tallies every request by
// route template.
func (m *MetricsHandler) count(c *gin.Context) {
	c.Next()
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
}

func (m *MetricsHandler) install(r *gin.Engine) {
	if m.registry == nil || m.listener != nil {
		return
	}
	r.GET(m.path, gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))
}

func (m *MetricsHandler) run() {
	if m.registry == nil || m.listener == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(m.path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}
	err := srv.Serve(m.listener)
	wl.Printf("prometheus: listener thread has stopped (err=%v)", err)
}
