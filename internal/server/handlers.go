package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depstatus/pkg/buildinfo"
	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/engine"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"build":     buildinfo.Get(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	var (
		repos  []deps.Repository
		crates []deps.PackagePath
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		repos, err = s.engine.GetPopularRepositories(ctx)
		return err
	})
	g.Go(func() (err error) {
		crates, err = s.engine.GetPopularPackages(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("could not retrieve popular items", "error", err)
		s.fail(w, err)
		return
	}

	resp := PopularResponse{
		Repositories: make([]PopularRepository, 0, popularLimit),
		Crates:       make([]PopularCrate, 0, popularLimit),
	}
	for _, repo := range repos[:min(len(repos), popularLimit)] {
		resp.Repositories = append(resp.Repositories, PopularRepository{
			Path:        repo.Path.String(),
			URL:         repo.Path.URL(),
			Description: repo.Description,
		})
	}
	for _, c := range crates[:min(len(crates), popularLimit)] {
		resp.Crates = append(resp.Crates, PopularCrate{Name: string(c.Name), Version: c.Version.String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRepoStatus(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.analyzeRepo(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatusResponse(outcome))
}

func (s *Server) handleRepoShield(w http.ResponseWriter, r *http.Request) {
	outcome, _ := s.analyzeRepo(r)
	writeJSON(w, http.StatusOK, NewShield(outcome))
}

func (s *Server) handleCrateStatus(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.analyzeCrate(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatusResponse(outcome))
}

func (s *Server) handleCrateShield(w http.ResponseWriter, r *http.Request) {
	outcome, _ := s.analyzeCrate(r)
	writeJSON(w, http.StatusOK, NewShield(outcome))
}

func (s *Server) handleCrateRedirect(w http.ResponseWriter, r *http.Request) {
	name, err := deps.ParsePackageName(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	release, err := s.latestRelease(r.Context(), name)
	if err != nil {
		s.fail(w, err)
		return
	}
	target := "/crate/" + url.PathEscape(string(release.Name)) + "/" + release.Version.String() + "/status.json"
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (s *Server) analyzeRepo(r *http.Request) (*engine.Outcome, error) {
	repo, err := deps.ParseRepositoryPath(chi.URLParam(r, "site"), chi.URLParam(r, "qual"), chi.URLParam(r, "name"))
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.analysisContext(r)
	defer cancel()

	outcome, err := s.engine.AnalyzeRepositoryDependencies(ctx, repo, r.URL.Query().Get("path"))
	if err != nil {
		s.logger.Error("repository analysis failed", "repo", repo, "error", err, "request_id", RequestIDFromContext(ctx))
		return nil, err
	}
	return outcome, nil
}

func (s *Server) analyzeCrate(r *http.Request) (*engine.Outcome, error) {
	ctx, cancel := s.analysisContext(r)
	defer cancel()

	name, version := chi.URLParam(r, "name"), chi.URLParam(r, "version")
	if version == "latest" {
		n, err := deps.ParsePackageName(name)
		if err != nil {
			return nil, err
		}
		release, err := s.latestRelease(ctx, n)
		if err != nil {
			return nil, err
		}
		version = release.Version.String()
	}
	path, err := deps.ParsePackagePath(name, version)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.AnalyzePackageDependencies(ctx, path)
	if err != nil {
		s.logger.Error("crate analysis failed", "crate", path, "error", err, "request_id", RequestIDFromContext(ctx))
		return nil, err
	}
	return outcome, nil
}

// latestRelease resolves the newest stable release of name.
func (s *Server) latestRelease(ctx context.Context, name deps.PackageName) (*deps.Release, error) {
	release, err := s.engine.FindLatestReleaseMatching(ctx, name, deps.AnyRequirement)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, errs.New(errs.ErrCodePackageNotFound, "crate %s has no stable release", name)
	}
	return release, nil
}

// fail writes err as a JSON error with a status derived from its category.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeError(w, statusFor(err), string(code), errs.UserMessage(err))
}

func statusFor(err error) int {
	switch errs.GetCategory(err) {
	case errs.CategoryValidation:
		return http.StatusBadRequest
	case errs.CategoryNotFound:
		return http.StatusNotFound
	case errs.CategoryTransport, errs.CategoryDecode:
		if errs.Is(err, errs.ErrCodeTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
