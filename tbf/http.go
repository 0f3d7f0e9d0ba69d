// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/stat"
	"github.com/sosy-lab/tbf/pkg/tbfconfig"
)

func initHTTP(cfg *tbfconfig.Config) {
	mux := newMux(cfg)
	log.Logf(0, "serving http on http://%v", cfg.HTTP)
	go func() {
		err := http.ListenAndServe(cfg.HTTP, mux)
		if err != nil {
			log.Fatalf("failed to listen on %v: %v", cfg.HTTP, err)
		}
	}()
}

func newMux(cfg *tbfconfig.Config) *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, handler func(http.ResponseWriter, *http.Request)) {
		mux.Handle(pattern, handlers.CompressHandler(http.HandlerFunc(handler)))
	}
	handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}).ServeHTTP)
	handle("/stats", httpStats)
	handle("/config", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.MarshalIndent(cfg, "", "\t")
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to encode config: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	handle("/log", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, log.CachedLogOutput())
	})
	return mux
}

func httpStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, s := range stat.Collect(stat.All) {
		fmt.Fprintf(w, "%v: %v\n", s.Name, s.Value)
	}
}
