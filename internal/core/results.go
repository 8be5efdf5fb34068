package core

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Result artefacts are best-effort: losing a log line or a screenshot must
// never fail the status report that carried it, so everything here logs
// failures and moves on. With no results dir configured nothing is written.

func (c *Service) resultsDir(jobID int64) (string, error) {
	if c.opts.ResultsDir == "" {
		return "", nil
	}
	dir := filepath.Join(c.opts.ResultsDir, fmt.Sprintf("%08d", jobID))
	return dir, os.MkdirAll(dir, 0755)
}

func (c *Service) appendLog(jobID int64, chunk string) {
	if chunk == "" {
		return
	}
	dir, err := c.resultsDir(jobID)
	if err != nil || dir == "" {
		c.logResultErr(jobID, "log", err)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "autoinst-log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		c.logResultErr(jobID, "log", err)
		return
	}
	defer f.Close()
	_, err = f.WriteString(chunk)
	c.logResultErr(jobID, "log", err)
}

func (c *Service) saveScreenshot(jobID int64, name string, data []byte) {
	if name == "" || len(data) == 0 {
		return
	}
	dir, err := c.resultsDir(jobID)
	if err != nil || dir == "" {
		c.logResultErr(jobID, "screenshot", err)
		return
	}
	name = filepath.Base(name) // reports are not trusted with paths
	err = os.WriteFile(filepath.Join(dir, name), data, 0644)
	if err != nil {
		c.logResultErr(jobID, "screenshot", err)
		return
	}
	// keep a stable pointer at the most recent shot for live views
	link := filepath.Join(dir, "last.png")
	os.Remove(link)
	c.logResultErr(jobID, "screenshot", os.Symlink(name, link))
}

func (c *Service) saveBackendInfo(jobID int64, backend map[string]string) {
	if len(backend) == 0 {
		return
	}
	dir, err := c.resultsDir(jobID)
	if err != nil || dir == "" {
		c.logResultErr(jobID, "backend", err)
		return
	}
	data, err := json.Marshal(backend)
	if err != nil {
		c.logResultErr(jobID, "backend", err)
		return
	}
	c.logResultErr(jobID, "backend", os.WriteFile(filepath.Join(dir, "backend.json"), data, 0644))
}

func (c *Service) saveModuleDetails(jobID int64, name string, details []byte) {
	if name == "" || len(details) == 0 {
		return
	}
	dir, err := c.resultsDir(jobID)
	if err != nil || dir == "" {
		c.logResultErr(jobID, "module details", err)
		return
	}
	fname := fmt.Sprintf("details-%s.json", filepath.Base(name))
	c.logResultErr(jobID, "module details", os.WriteFile(filepath.Join(dir, fname), details, 0644))
}

func (c *Service) logResultErr(jobID int64, what string, err error) {
	if err == nil {
		return
	}
	log.Printf("job %d: failed to save %s: %v", jobID, what, err)
}
