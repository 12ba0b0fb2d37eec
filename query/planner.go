package query

import (
	"log"

	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/scoring"
	"github.com/d5214/ranksearch/tokenize"
)

// Mode selects conjunctive (AND) vs disjunctive (OR) query evaluation.
type Mode int

const (
	Disjunctive Mode = iota
	Conjunctive
)

// Term is one query term resolved against the lexicon, ready to hand to a
// retrieval engine.
type Term struct {
	Text  string
	Entry lexicon.Entry
}

// Plan is the planner's output: the resolved terms and a record of any
// tokens that were dropped for lacking a lexicon entry.
type Plan struct {
	Terms   []Term
	Dropped []string
}

// Empty reports whether no usable terms remain after lexicon resolution.
func (p Plan) Empty() bool { return len(p.Terms) == 0 }

// Build tokenises query the same way the index was built, drops tokens
// absent from the lexicon (logging a warning but proceeding), and returns
// the resolved term list.
func Build(queryText string, lex *lexicon.Lexicon) Plan {
	var plan Plan
	tokenize.Each(queryText, func(tok string) {
		entry, ok := lex.Lookup(tok)
		if !ok {
			log.Printf("query: term %q absent from lexicon, dropping", tok)
			plan.Dropped = append(plan.Dropped, tok)
			return
		}
		plan.Terms = append(plan.Terms, Term{Text: tok, Entry: entry})
	})
	return plan
}

// Engine evaluates a resolved Plan against the index and corpus statistics,
// returning the top-K results.
type Engine struct {
	Reader *indexfile.Reader
	Corpus scoring.Corpus
	TopK   int
	DAAT   bool
}

// Run executes plan under mode, dispatching to the engine selected by
// e.DAAT. An empty plan yields an empty result set, and so does a
// conjunctive plan that dropped any query token: no document can contain a
// term the lexicon does not know.
func (e Engine) Run(plan Plan, mode Mode) ([]Result, error) {
	if plan.Empty() {
		return nil, nil
	}
	if mode == Conjunctive && len(plan.Dropped) > 0 {
		return nil, nil
	}
	switch {
	case mode == Disjunctive && !e.DAAT:
		return e.taatOR(plan)
	case mode == Conjunctive && !e.DAAT:
		return e.taatAND(plan)
	case mode == Conjunctive && e.DAAT:
		return e.daatAND(plan)
	default:
		return e.daatOR(plan)
	}
}
