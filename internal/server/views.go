package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/engine"
)

// StatusResponse is the body of status.json.
type StatusResponse struct {
	Crates map[string]CrateStatus `json:"crates"`
}

// CrateStatus lists the analyzed dependencies of one package by bucket.
type CrateStatus struct {
	Dependencies      map[string]DependencyStatus `json:"dependencies"`
	DevDependencies   map[string]DependencyStatus `json:"dev-dependencies"`
	BuildDependencies map[string]DependencyStatus `json:"build-dependencies"`
}

// DependencyStatus is the analysis of one dependency.
type DependencyStatus struct {
	Required       string   `json:"required"`
	Latest         *string  `json:"latest"`
	LatestMatching *string  `json:"latest_matching"`
	Outdated       bool     `json:"outdated"`
	Insecure       bool     `json:"insecure"`
	Advisories     []string `json:"advisories,omitempty"`
}

// NewStatusResponse renders an outcome as the status.json body.
func NewStatusResponse(o *engine.Outcome) StatusResponse {
	resp := StatusResponse{Crates: make(map[string]CrateStatus, len(o.Packages))}
	for _, p := range o.Packages {
		resp.Crates[string(p.Name)] = CrateStatus{
			Dependencies:      bucketStatus(&p.Deps.Main),
			DevDependencies:   bucketStatus(&p.Deps.Dev),
			BuildDependencies: bucketStatus(&p.Deps.Build),
		}
	}
	return resp
}

func bucketStatus(b *deps.AnalyzedBucket) map[string]DependencyStatus {
	out := make(map[string]DependencyStatus, b.Len())
	for name, d := range b.All() {
		st := DependencyStatus{
			Required: d.Required.String(),
			Outdated: d.IsOutdated(),
			Insecure: d.IsInsecure(),
		}
		if d.Latest != nil {
			s := d.Latest.String()
			st.Latest = &s
		}
		if d.LatestMatching != nil {
			s := d.LatestMatching.String()
			st.LatestMatching = &s
		}
		for _, a := range d.Vulnerabilities {
			st.Advisories = append(st.Advisories, a.ID)
		}
		out[string(name)] = st
	}
	return out
}

// Shield is a shields.io endpoint badge.
type Shield struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
	IsError       bool   `json:"isError,omitempty"`
}

const shieldLabel = "dependencies"

// NewShield summarizes an outcome as a badge. A nil outcome means the
// analysis failed.
func NewShield(o *engine.Outcome) Shield {
	s := Shield{SchemaVersion: 1, Label: shieldLabel}
	if o == nil {
		s.Message, s.Color, s.IsError = "unknown", "#9f9f9f", true
		return s
	}
	outdated, total := o.OutdatedRatio()
	switch {
	case o.AnyAlwaysInsecure():
		s.Message, s.Color = "insecure", "#e05d44"
	case outdated > 0:
		s.Message, s.Color = fmt.Sprintf("%d of %d outdated", outdated, total), "#dfb317"
	case total > 0 && o.AnyInsecure():
		s.Message, s.Color = "maybe insecure", "#88bb11"
	case total > 0:
		s.Message, s.Color = "up to date", "#44cc11"
	default:
		s.Message, s.Color = "none", "#44cc11"
	}
	return s
}

// PopularResponse is the body of /api/popular.
type PopularResponse struct {
	Repositories []PopularRepository `json:"repositories"`
	Crates       []PopularCrate      `json:"crates"`
}

// PopularRepository is one entry of the popular repository list.
type PopularRepository struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PopularCrate is one entry of the popular crate list.
type PopularCrate struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
