package cmd

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/minouris/spafw37-sub001/internal/errors"
	"github.com/minouris/spafw37-sub001/pkg/scheduler"
)

// withSuggestion adds a "did you mean" hint to unresolved command errors
// when the name is close to an invocable command.
func withSuggestion(err error, name string, s *scheduler.Scheduler) error {
	if !errors.Is(err, errors.ErrUnresolvedReference) {
		return err
	}
	var candidates []string
	for _, c := range s.Commands() {
		if c.Invocable {
			candidates = append(candidates, c.Name)
		}
	}
	if match := closestMatch(name, candidates); match != "" {
		return fmt.Errorf("%w (did you mean %q?)", err, match)
	}
	return err
}

// closestMatch returns the best fuzzy match for target, or "" when none of
// the candidates contain its characters in order.
func closestMatch(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// queueAll queues each name in turn so an unresolved name can carry a hint.
func queueAll(s *scheduler.Scheduler, names []string) error {
	for _, name := range names {
		if err := s.Queue(name); err != nil {
			return withSuggestion(err, name, s)
		}
	}
	return nil
}
