package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	ie "github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

var (
	errmap map[int][]error = map[int][]error{
		http.StatusBadRequest: []error{
			ie.ErrInvalidArg,
			ie.ErrInvalidState,
		},
		http.StatusNotFound: []error{
			ie.ErrNotFound,
		},
		http.StatusConflict: []error{
			ie.ErrAlreadyCloned,
			ie.ErrRetriesExhausted,
			ie.ErrNoWorkerAssigned,
			ie.ErrCloneChain,
		},
	}
)

// mapError returns the http status code for a given error, or
// http.StatusInternalServerError if the error is not recognised.
func mapError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for code, errs := range errmap {
		for _, e := range errs {
			if errors.Is(err, e) {
				return code
			}
		}
	}
	return http.StatusInternalServerError
}

// jobIDVar pulls the {id} route variable. Writes the error response itself.
func jobIDVar(w http.ResponseWriter, r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad job id", http.StatusBadRequest)
		return 0, fmt.Errorf("bad job id: %v", raw)
	}
	return id, nil
}

func unmarshalQuery(w http.ResponseWriter, r *http.Request, out *structs.Query) error {
	q := r.URL.Query()

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad limit: %v", err)
		}
		out.Limit = limit
	}

	if q.Has("offset") {
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad offset: %v", err)
		}
		out.Offset = offset
	}

	if q.Has("before_id") {
		before, err := strconv.ParseInt(q.Get("before_id"), 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad before_id: %v", err)
		}
		out.BeforeID = before
	}

	if q.Has("job_ids") {
		out.JobIDs = []int64{}
		for _, raw := range q["job_ids"] {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "bad job id", http.StatusBadRequest)
				return fmt.Errorf("bad job id: %v", raw)
			}
			out.JobIDs = append(out.JobIDs, id)
		}
	}

	if q.Has("states") {
		out.States = []structs.State{}
		for _, s := range q["states"] {
			st := structs.ToState(s)
			if st == "" {
				http.Error(w, "bad state", http.StatusBadRequest)
				return fmt.Errorf("bad state: %v", s)
			}
			out.States = append(out.States, st)
		}
	}

	if q.Has("results") {
		out.Results = []structs.Result{}
		for _, s := range q["results"] {
			rs := structs.ToResult(s)
			if rs == "" {
				http.Error(w, "bad result", http.StatusBadRequest)
				return fmt.Errorf("bad result: %v", s)
			}
			out.Results = append(out.Results, rs)
		}
	}

	out.Sanitize()
	return nil
}

// unmarshalJson reads the body of a request and attempts to unmarshal it into the given object.
// This function write an error to the writer if an error occurs, and returns the error.
func unmarshalJson(w http.ResponseWriter, r *http.Request, obj interface{}) error {
	if r.Body == nil {
		http.Error(w, "No body", http.StatusBadRequest)
		return fmt.Errorf("no body")
	}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields() // catch unwanted fields

	err := d.Decode(obj)
	if err != nil {
		// bad JSON or unrecognized json field
		http.Error(w, err.Error(), http.StatusBadRequest)
		return fmt.Errorf("bad json: %v", err)
	}

	return nil
}
