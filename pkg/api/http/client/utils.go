package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/B-Rich/openQA/pkg/structs"
)

// jobPath fills the {id} route variable in an API path.
func jobPath(path string, jobID int64) string {
	return strings.Replace(path, "{id}", strconv.FormatInt(jobID, 10), 1)
}

// genericPost is a helper to POST data to a given URL and unmarshal the response
func genericPost(addr *url.URL, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := http.Post(addr.String(), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	} else if resp.Body == nil {
		return fmt.Errorf("no response body with status code %d", resp.StatusCode)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// genericGet is a helper to GET data from a given URL and unmarshal the response.
// Implies the Query string is already set, if needed.
func genericGet(addr *url.URL, out interface{}) error {
	resp, err := http.Get(addr.String())
	if err != nil {
		return err
	} else if resp.Body == nil { // there is no data to read
		if resp.StatusCode >= 400 {
			return fmt.Errorf("bad status code: %d", resp.StatusCode)
		}
		return nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// setQueryString sets the query string of a URL based on the given query object.
func setQueryString(u *url.URL, q *structs.Query) {
	q.Sanitize()
	values := u.Query()

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.BeforeID > 0 {
		values.Set("before_id", strconv.FormatInt(q.BeforeID, 10))
	}
	if q.JobIDs != nil {
		ids := []string{}
		for _, id := range q.JobIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		values["job_ids"] = ids
	}
	if q.States != nil {
		ss := []string{}
		for _, s := range q.States {
			ss = append(ss, string(s))
		}
		values["states"] = ss
	}
	if q.Results != nil {
		rs := []string{}
		for _, r := range q.Results {
			rs = append(rs, string(r))
		}
		values["results"] = rs
	}

	u.RawQuery = values.Encode()
}
