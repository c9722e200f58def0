package service

import (
	"context"
	"fmt"

	"github.com/smitebuilds/backend/internal/domain"
	"go.uber.org/zap"
)

// missingRole marks a build that is simply absent from the scraped data;
// nothing can be fixed about it, but it blocks auto-fixing of its team.
const missingRole = "Missing data"

// buildCounter is the slice of the build repository the corrector needs for
// its substitute tie-break.
type buildCounter interface {
	CountByTeamPlayer(ctx context.Context, team, player string) (int64, error)
}

// roleCorrector repairs miscategorized role labels. Two kinds of input
// issues exist:
//
//  1. A build is missing entirely - nothing to do.
//  2. A build carries the wrong role. This happens with substitute players,
//     in two flavors: (a) the role reads "Sub" or "Coach" instead of what
//     they actually played; (b) the substitute's displayed role reflects
//     their position on a previous team, so one allowed role appears twice
//     and another not at all.
type roleCorrector struct {
	counts buildCounter
	log    *zap.Logger
}

// fixAll groups drafts by game and corrects each game independently. Games
// are processed in first-appearance order so log output and failures are
// deterministic.
func (c *roleCorrector) fixAll(ctx context.Context, drafts []*buildDraft) error {
	var order []string
	games := make(map[string][]*buildDraft)
	for _, d := range drafts {
		key := d.game()
		if _, ok := games[key]; !ok {
			order = append(order, key)
		}
		games[key] = append(games[key], d)
	}

	for _, key := range order {
		gameLog := c.log.With(zap.String("game", key))
		if err := c.fixGame(ctx, games[key], gameLog); err != nil {
			return fmt.Errorf("game %s: %w", key, err)
		}
	}
	return nil
}

func (c *roleCorrector) fixGame(ctx context.Context, builds []*buildDraft, log *zap.Logger) error {
	var teams []string
	teamBuilds := make(map[string][]*buildDraft)
	for _, b := range builds {
		if _, ok := teamBuilds[b.team1]; !ok {
			teams = append(teams, b.team1)
		}
		teamBuilds[b.team1] = append(teamBuilds[b.team1], b)
	}

	if len(teams) != 2 {
		return fmt.Errorf("%w: got %d (%v)", domain.ErrTeamCount, len(teams), teams)
	}

	fixed1, roleTo1, err := c.fixTeam(ctx, teamBuilds[teams[0]], log)
	if err != nil {
		return err
	}
	fixed2, roleTo2, err := c.fixTeam(ctx, teamBuilds[teams[1]], log)
	if err != nil {
		return err
	}

	// A wrongly labeled role almost certainly means the scraper paired the
	// build with the wrong opponent too, so the opponent fields of every
	// repaired build are refreshed from the other team's matching role.
	fixOpponentFields(fixed1, roleTo2, log)
	fixOpponentFields(fixed2, roleTo1, log)
	return nil
}

// fixTeam classifies the team's role buckets and repairs at most one of
// them. It returns the builds it mutated and a map from each correctly
// labeled role to its build (for opponent-field propagation).
func (c *roleCorrector) fixTeam(ctx context.Context, builds []*buildDraft, log *zap.Logger) ([]*buildDraft, map[string]*buildDraft, error) {
	if len(builds) > domain.TeamSize {
		return nil, nil, fmt.Errorf("%w: got %d", domain.ErrTooManyBuilds, len(builds))
	}

	var correct, fixable, unfixable []string
	for i := len(builds); i < domain.TeamSize; i++ {
		unfixable = append(unfixable, missingRole)
	}

	var roles []string
	roleBuilds := make(map[string][]*buildDraft)
	for _, b := range builds {
		if _, ok := roleBuilds[b.role]; !ok {
			roles = append(roles, b.role)
		}
		roleBuilds[b.role] = append(roleBuilds[b.role], b)
	}

	for _, role := range roles {
		allowed := domain.Role(role).IsValid()
		switch n := len(roleBuilds[role]); {
		case n > 2:
			unfixable = append(unfixable, role)
		case n == 2 && allowed:
			fixable = append(fixable, role) // flavor (b): duplicated allowed role
		case n == 2:
			unfixable = append(unfixable, role)
		case allowed:
			correct = append(correct, role)
		default:
			fixable = append(fixable, role) // flavor (a): Sub/Coach label
		}
	}

	roleToBuild := make(map[string]*buildDraft, len(correct))
	for _, role := range correct {
		roleToBuild[role] = roleBuilds[role][0]
	}

	// Auto-fix only with exactly one fixable error and nothing unfixable.
	// With e.g. Coach in place of Solo and Sub in place of Mid there is no
	// way to know which substitution is which, so both are left for manual
	// correction.
	if len(fixable) != 1 || len(unfixable) != 0 {
		for _, role := range fixable {
			log.Warn("wrong role left unfixed",
				zap.String("role", role), zap.Int("builds", len(roleBuilds[role])))
		}
		for _, role := range unfixable {
			if role == missingRole {
				log.Info("missing build")
			} else {
				log.Warn("wrong role left unfixed",
					zap.String("role", role), zap.Int("builds", len(roleBuilds[role])))
			}
		}
		return nil, roleToBuild, nil
	}

	roleToFix := fixable[0]
	candidates := roleBuilds[roleToFix]

	missing := make(map[string]bool, domain.TeamSize)
	for _, role := range domain.AllRoles {
		missing[role.String()] = true
	}
	for _, role := range correct {
		delete(missing, role)
	}

	var target *buildDraft
	if !domain.Role(roleToFix).IsValid() {
		// Flavor (a): one mislabeled build, one missing role.
		target = candidates[0]
	} else {
		// Flavor (b): decide which of the two is the substitute by how many
		// games each has on record with this team; the regular has more.
		delete(missing, roleToFix)
		count0, err := c.counts.CountByTeamPlayer(ctx, candidates[0].team1, candidates[0].player1)
		if err != nil {
			return nil, nil, err
		}
		count1, err := c.counts.CountByTeamPlayer(ctx, candidates[1].team1, candidates[1].player1)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case count0 < count1:
			target = candidates[0]
		case count0 > count1:
			target = candidates[1]
		default:
			log.Warn("wrong role left unfixed, tied play counts",
				zap.String("role", roleToFix), zap.Int64("count", count0))
			return nil, roleToBuild, nil
		}
	}

	// Exactly one role can be absent here: a full team has four correct
	// builds in flavor (a), three plus the duplicated pair in flavor (b),
	// and missing builds were already counted as unfixable.
	if len(missing) != 1 {
		return nil, nil, fmt.Errorf("expected exactly one missing role, got %v", missing)
	}
	var missingOne string
	for role := range missing {
		missingOne = role
	}

	log.Info("role fixed",
		zap.String("from", roleToFix), zap.String("to", missingOne))
	target.role = missingOne
	roleToBuild[missingOne] = target
	return []*buildDraft{target}, roleToBuild, nil
}

func fixOpponentFields(fixed []*buildDraft, roleToOpp map[string]*buildDraft, log *zap.Logger) {
	for _, b := range fixed {
		opp, ok := roleToOpp[b.role]
		if !ok {
			// The opponent map holds only correctly labeled roles; a miss
			// was already reported while fixing the other team.
			continue
		}
		buildLog := log.With(zap.String("game", b.game()))
		buildLog.Info("opponent god fixed",
			zap.String("from", b.god2), zap.String("to", opp.god1))
		b.god2 = opp.god1
		buildLog.Info("opponent player fixed",
			zap.String("from", b.player2), zap.String("to", opp.player1))
		b.player2 = opp.player1
	}
}
