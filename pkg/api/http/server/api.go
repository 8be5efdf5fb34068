package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/B-Rich/openQA/pkg/api"
	"github.com/B-Rich/openQA/pkg/api/http/common"
	"github.com/B-Rich/openQA/pkg/structs"
)

const (
	wait = 30 * time.Second
)

type Server struct {
	addr       string
	static     string
	debug      bool
	svc        api.API
	exit       chan os.Signal
	httpserver *http.Server
}

func (s *Server) ServeForever(svc api.API) error {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.HandleFunc(common.API_JOBS, s.Jobs).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.API_JOB, s.Summary).Methods(http.MethodGet)
	router.HandleFunc(common.API_STATUS, s.UpdateStatus).Methods(http.MethodPost)
	router.HandleFunc(common.API_DONE, s.Done).Methods(http.MethodPost)
	router.HandleFunc(common.API_CANCEL, s.Cancel).Methods(http.MethodPost)
	router.HandleFunc(common.API_RESTART, s.Restart).Methods(http.MethodPost)
	router.HandleFunc(common.API_NETWORK, s.AllocateNetwork).Methods(http.MethodPost)

	if s.static != "" {
		log.Println("Serving static files from", s.static)
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.static)))
	}

	if s.debug {
		log.Println("Debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}

	s.httpserver = &http.Server{
		Handler:      router,
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Println("Listening on", s.httpserver.Addr)
		if err := s.httpserver.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s.httpserver.Shutdown(ctx)
	os.Exit(0)
	return nil
}

func (s *Server) Jobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getJobs(w, r)
	case http.MethodPost:
		s.createJob(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	cjr := &structs.CreateJobRequest{}
	err := unmarshalJson(w, r, cjr)
	if err != nil {
		return
	}

	resp, err := s.svc.CreateJob(cjr)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) getJobs(w http.ResponseWriter, r *http.Request) {
	q := &structs.Query{}
	err := unmarshalQuery(w, r, q)
	if err != nil {
		return
	}

	items, err := s.svc.Jobs(q)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	if s.debug {
		log.Println(r.URL, "returned", len(items), "items")
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	q := r.URL.Query()
	opts := &structs.SummaryOpts{
		IncludeAssets: q.Get("include_assets") == "true",
		IncludeDeps:   q.Get("include_deps") == "true",
	}

	summary, err := s.svc.Summary(jobID, opts)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(summary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	report := &structs.StatusReport{}
	err = unmarshalJson(w, r, report)
	if err != nil {
		return
	}

	result, err := s.svc.UpdateStatus(jobID, report)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.ResultResponse{Result: result})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Done(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	req := &structs.DoneRequest{}
	err = unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	result, err := s.svc.Done(jobID, req)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.ResultResponse{Result: result})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	req := &common.CancelRequest{}
	err = unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	updated, err := s.svc.Cancel(jobID, req.Obsoleted)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.UpdateResponse{Updated: updated})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	req := &common.RestartRequest{}
	err = unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	clone, err := s.svc.AutoDuplicate(jobID, req.Automatic)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(clone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) AllocateNetwork(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDVar(w, r)
	if err != nil {
		return
	}

	req := &common.NetworkRequest{}
	err = unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	vlan, err := s.svc.AllocateNetwork(jobID, req.Name)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.VlanResponse{Vlan: vlan})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func NewServer(addr, static string, debug bool) *Server {
	return &Server{
		static: static,
		addr:   addr,
		debug:  debug,
		exit:   make(chan os.Signal, 1),
	}
}
