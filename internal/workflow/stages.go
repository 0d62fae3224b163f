package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vardan201/pitchagent/internal/llm"
	"github.com/vardan201/pitchagent/internal/pitchtmpl"
	"github.com/vardan201/pitchagent/internal/postprocess"
	"github.com/vardan201/pitchagent/internal/review"
)

// Searcher looks up market research for a query. Implementations fail open:
// they return a placeholder string rather than an error.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// ContextCache lets repeated runs for the same MVP description reuse
// previously gathered research context.
type ContextCache interface {
	GetContext(ctx context.Context, mvpDescription string) (string, bool, error)
	PutContext(ctx context.Context, mvpDescription, researchContext string) error
}

const searchQueryLen = 100

// Stages bundles the five external-call-backed stage functions. Each stage
// makes exactly one generation call, commits only its documented output
// fields, and commits nothing on failure. Status transitions belong to the
// Machine, not to stages.
type Stages struct {
	// Cache is optional; when set, Contextualize consults it before
	// searching and generating.
	Cache ContextCache

	llm    llm.Client
	search Searcher
	cfg    Config
	log    *slog.Logger
}

func NewStages(client llm.Client, searcher Searcher, cfg Config, logger *slog.Logger) *Stages {
	if logger == nil {
		logger = nopLogger()
	}
	return &Stages{llm: client, search: searcher, cfg: cfg, log: logger}
}

func (s *Stages) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
	}
	return s.llm.Complete(ctx, systemPrompt, userPrompt)
}

// Contextualize gathers market research and writes st.Context.
func (s *Stages) Contextualize(ctx context.Context, st *State) error {
	if s.Cache != nil {
		if cached, found, err := s.Cache.GetContext(ctx, st.MVPDescription); err == nil && found {
			s.log.Info("using cached research context", "request_id", st.RequestID)
			st.Context = cached
			return nil
		}
	}

	query := truncateRunes(st.MVPDescription, searchQueryLen) + " market analysis competitors"
	research := s.search.Search(ctx, query)
	template := pitchtmpl.Lookup(s.cfg.TemplateKind)

	out, err := s.complete(ctx, contextSystemPrompt, buildContextUserPrompt(st.MVPDescription, research, template))
	if err != nil {
		return err
	}

	st.Context = postprocess.Clean(out)

	if s.Cache != nil {
		if err := s.Cache.PutContext(ctx, st.MVPDescription, st.Context); err != nil {
			s.log.Warn("failed to cache research context", "error", err)
		}
	}
	return nil
}

// Draft generates the initial pitch and writes st.Pitch.
func (s *Stages) Draft(ctx context.Context, st *State) error {
	out, err := s.complete(ctx, draftSystemPrompt, buildDraftUserPrompt(st.MVPDescription, st.Context))
	if err != nil {
		return err
	}

	pitch := postprocess.Clean(out)
	if pitch == "" {
		return &llm.GenerationError{Provider: "draft", Err: errors.New("empty completion")}
	}
	st.Pitch = pitch
	return nil
}

// Evaluate critiques the current pitch, writing st.Critique and bumping the
// lifetime iteration counter. A malformed critique degrades to a FAIL
// sentinel rather than an error.
func (s *Stages) Evaluate(ctx context.Context, st *State) error {
	out, err := s.complete(ctx, criticSystemPrompt(s.cfg.PassThreshold), buildCriticUserPrompt(st.Pitch))
	if err != nil {
		return err
	}

	crit, parsed := review.ParseCritique(out, s.cfg.PassThreshold)
	if !parsed {
		s.log.Warn("critique parse fell back to sentinel", "request_id", st.RequestID)
	}

	st.Critique = crit
	st.TotalIterations++
	st.History = append(st.History, CritiqueRound{
		Iteration:    st.TotalIterations,
		OverallScore: crit.OverallScore,
		Decision:     crit.Decision,
	})
	return nil
}

// Refine rewrites the pitch against the latest critique, optionally
// incorporating human feedback, and overwrites st.Pitch.
func (s *Stages) Refine(ctx context.Context, st *State, humanFeedback string) error {
	out, err := s.complete(ctx, refineSystemPrompt, buildRefineUserPrompt(st.Pitch, st.Critique, humanFeedback))
	if err != nil {
		return err
	}

	if refined := postprocess.Clean(out); refined != "" {
		st.Pitch = refined
	}
	return nil
}

// Package produces the final deliverable and writes st.FinalPackage. A
// malformed package degrades to a sentinel carrying the approved pitch.
func (s *Stages) Package(ctx context.Context, st *State, humanFeedback string) error {
	out, err := s.complete(ctx, packageSystemPrompt, buildPackageUserPrompt(st.Pitch, humanFeedback))
	if err != nil {
		return err
	}

	pkg, parsed := review.ParseFinalPackage(out, st.Pitch)
	if !parsed {
		s.log.Warn("final package parse fell back to sentinel", "request_id", st.RequestID)
	}
	st.FinalPackage = &pkg
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
