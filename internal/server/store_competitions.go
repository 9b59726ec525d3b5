package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/interschool/quizbowl/internal/bracket"
)

func (s *SQLiteStore) ListCompetitions(ctx context.Context) ([]CompetitionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.status, c.current_stage, c.current_phase,
			(SELECT COUNT(*) FROM competition_teams ct WHERE ct.competition_id = c.id),
			c.created_at
		FROM competitions c
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comps := []CompetitionSummary{}
	for rows.Next() {
		var c CompetitionSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CurrentStage, &c.CurrentPhase,
			&c.TeamCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (s *SQLiteStore) CreateCompetition(ctx context.Context, name string, teamIDs []string) (CompetitionDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CompetitionDetail{}, err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO competitions (id, name) VALUES (?, ?)
		RETURNING created_at
	`, id, name).Scan(&createdAt)
	if err != nil {
		return CompetitionDetail{}, err
	}

	for _, teamID := range teamIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO competition_teams (competition_id, team_id) VALUES (?, ?)
		`, id, teamID); err != nil {
			if isUniqueViolation(err) {
				return CompetitionDetail{}, ErrConflict
			}
			return CompetitionDetail{}, err
		}
		// Seed the ledger so every participant starts at zero.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scores (competition_id, team_id, score) VALUES (?, ?, 0)
		`, id, teamID); err != nil {
			return CompetitionDetail{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return CompetitionDetail{}, err
	}
	return s.GetCompetition(ctx, id)
}

func (s *SQLiteStore) GetCompetition(ctx context.Context, id string) (CompetitionDetail, error) {
	var c CompetitionDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, current_stage, current_phase, created_at
		FROM competitions WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Status, &c.CurrentStage, &c.CurrentPhase, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CompetitionDetail{}, ErrNotFound
	}
	if err != nil {
		return CompetitionDetail{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ct.team_id, t.name, sc.name, t.stage, COALESCE(s.score, 0)
		FROM competition_teams ct
		JOIN teams t ON t.id = ct.team_id
		JOIN schools sc ON sc.id = t.school_id
		LEFT JOIN scores s ON s.competition_id = ct.competition_id AND s.team_id = ct.team_id
		WHERE ct.competition_id = ?
		ORDER BY COALESCE(s.score, 0) DESC, t.created_at
	`, id)
	if err != nil {
		return CompetitionDetail{}, err
	}
	defer rows.Close()

	c.Teams = []CompetitionTeam{}
	for rows.Next() {
		var t CompetitionTeam
		if err := rows.Scan(&t.TeamID, &t.Name, &t.SchoolName, &t.Stage, &t.Score); err != nil {
			return CompetitionDetail{}, err
		}
		c.Teams = append(c.Teams, t)
	}
	if err := rows.Err(); err != nil {
		return CompetitionDetail{}, err
	}

	groups, err := s.ListGroups(ctx, id)
	if err != nil {
		return CompetitionDetail{}, err
	}
	c.Groups = groups
	return c, nil
}

func (s *SQLiteStore) DeleteCompetition(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ParticipantIDs(ctx context.Context, competitionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ct.team_id
		FROM competition_teams ct
		JOIN teams t ON t.id = ct.team_id
		WHERE ct.competition_id = ?
		ORDER BY t.created_at
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) IsParticipant(ctx context.Context, competitionID, teamID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM competition_teams WHERE competition_id = ? AND team_id = ?
	`, competitionID, teamID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) ListGroups(ctx context.Context, competitionID string) ([]GroupItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stage, rounds_played, created_at
		FROM groups
		WHERE competition_id = ?
		ORDER BY created_at, name
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []GroupItem{}
	for rows.Next() {
		var g GroupItem
		if err := rows.Scan(&g.ID, &g.Name, &g.Stage, &g.RoundsPlayed, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		members, err := s.groupMembers(ctx, competitionID, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Teams = members
	}
	return groups, nil
}

func (s *SQLiteStore) groupMembers(ctx context.Context, competitionID, groupID string) ([]CompetitionTeam, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gm.team_id, t.name, sc.name, t.stage, COALESCE(s.score, 0)
		FROM group_members gm
		JOIN teams t ON t.id = gm.team_id
		JOIN schools sc ON sc.id = t.school_id
		LEFT JOIN scores s ON s.competition_id = ? AND s.team_id = gm.team_id
		WHERE gm.group_id = ?
		ORDER BY gm.position
	`, competitionID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []CompetitionTeam{}
	for rows.Next() {
		var t CompetitionTeam
		if err := rows.Scan(&t.TeamID, &t.Name, &t.SchoolName, &t.Stage, &t.Score); err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return members, rows.Err()
}

// ReplaceGroups swaps the competition's full group set for the given
// one in a single transaction. Group size is validated by callers.
func (s *SQLiteStore) ReplaceGroups(ctx context.Context, competitionID string, stage bracket.Stage, groups []GroupDef) ([]GroupItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := replaceGroupsTx(ctx, tx, competitionID, stage, groups); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.ListGroups(ctx, competitionID)
}

func replaceGroupsTx(ctx context.Context, tx *sql.Tx, competitionID string, stage bracket.Stage, groups []GroupDef) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE competition_id = ?`, competitionID); err != nil {
		return err
	}

	for _, g := range groups {
		groupID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO groups (id, competition_id, name, stage) VALUES (?, ?, ?, ?)
		`, groupID, competitionID, g.Name, string(stage)); err != nil {
			return err
		}
		for pos, teamID := range g.TeamIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO group_members (group_id, team_id, position) VALUES (?, ?, ?)
			`, groupID, teamID, pos+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Standings ranks a competition's non-eliminated participants by
// descending ledger score. The tie order (team creation time) is
// stable but otherwise arbitrary.
func (s *SQLiteStore) Standings(ctx context.Context, competitionID string) ([]bracket.Standing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ct.team_id, t.name, COALESCE(s.score, 0)
		FROM competition_teams ct
		JOIN teams t ON t.id = ct.team_id
		LEFT JOIN scores s ON s.competition_id = ct.competition_id AND s.team_id = ct.team_id
		WHERE ct.competition_id = ? AND t.stage != 'eliminated'
		ORDER BY COALESCE(s.score, 0) DESC, t.created_at
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []bracket.Standing
	for rows.Next() {
		var st bracket.Standing
		if err := rows.Scan(&st.TeamID, &st.Name, &st.Score); err != nil {
			return nil, err
		}
		standings = append(standings, st)
	}
	return standings, rows.Err()
}

// AdvanceStage performs the stage cutover in one transaction: zero the
// advancing teams' ledger scores, hard-delete the competition's
// groups, create the new groups by sequential slicing, move advancing
// teams to the target stage, eliminate the rest, and update the
// competition's stage and phase markers.
func (s *SQLiteStore) AdvanceStage(ctx context.Context, competitionID string, teamIDs []string, stage bracket.Stage) ([]GroupItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM competitions WHERE id = ?`, competitionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Prior-stage accumulation does not carry forward.
	for _, teamID := range teamIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scores (competition_id, team_id, score) VALUES (?, ?, 0)
			ON CONFLICT (competition_id, team_id) DO UPDATE SET score = 0
		`, competitionID, teamID); err != nil {
			return nil, err
		}
	}

	groups := make([]GroupDef, 0, len(teamIDs)/bracket.GroupSize)
	for i, ids := range bracket.Partition(teamIDs, bracket.GroupSize) {
		groups = append(groups, GroupDef{Name: groupName(stage, i), TeamIDs: ids})
	}
	if err := replaceGroupsTx(ctx, tx, competitionID, stage, groups); err != nil {
		return nil, err
	}

	placeholders := strings.Repeat("?,", len(teamIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(teamIDs)+1)
	args = append(args, string(stage))
	for _, id := range teamIDs {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET stage = ? WHERE id IN (`+placeholders+`)
	`, args...); err != nil {
		return nil, err
	}

	args = args[1:]
	args = append(args, competitionID)
	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET stage = 'eliminated'
		WHERE id NOT IN (`+placeholders+`)
		  AND id IN (SELECT team_id FROM competition_teams WHERE competition_id = ?)
	`, args...); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE competitions SET status = 'ongoing', current_stage = ?, current_phase = ?
		WHERE id = ?
	`, string(stage), string(stagePhase(stage)), competitionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.ListGroups(ctx, competitionID)
}

func groupName(stage bracket.Stage, i int) string {
	switch stage {
	case bracket.StageFinal:
		return "Final"
	case bracket.StageSemiFinal:
		return fmt.Sprintf("Semifinal %c", 'A'+i)
	default:
		return fmt.Sprintf("Group %c", 'A'+i)
	}
}

func stagePhase(stage bracket.Stage) bracket.Phase {
	switch stage {
	case bracket.StageFinal:
		return bracket.PhaseFinal
	case bracket.StageSemiFinal:
		return bracket.PhaseSemiFinal
	default:
		return bracket.PhaseLeague
	}
}

// ResetCompetition is the explicit undo path: groups gone, ledger
// cleared, per-competition question usage forgotten, every participant
// back at the group stage, competition back to draft.
func (s *SQLiteStore) ResetCompetition(ctx context.Context, competitionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM competitions WHERE id = ?`, competitionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	steps := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM groups WHERE competition_id = ?`, []any{competitionID}},
		{`DELETE FROM scores WHERE competition_id = ?`, []any{competitionID}},
		{`DELETE FROM question_usage WHERE competition_id = ?`, []any{competitionID}},
		{`UPDATE teams SET stage = 'group'
			WHERE id IN (SELECT team_id FROM competition_teams WHERE competition_id = ?)`, []any{competitionID}},
		{`UPDATE competitions SET status = 'draft', current_stage = 'group', current_phase = 'league'
			WHERE id = ?`, []any{competitionID}},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddScore increments the (competition, team) ledger entry and returns
// the new value.
func (s *SQLiteStore) AddScore(ctx context.Context, competitionID, teamID string, delta int) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scores (competition_id, team_id, score) VALUES (?, ?, ?)
		ON CONFLICT (competition_id, team_id) DO UPDATE SET score = score + excluded.score
		RETURNING score
	`, competitionID, teamID, delta).Scan(&score)
	return score, err
}

// CandidateQuestions lists question IDs of the given type (and phase,
// unless empty) that this competition has not consumed. With
// globallyUnused set, questions ever served to any competition are
// excluded too.
func (s *SQLiteStore) CandidateQuestions(ctx context.Context, competitionID, qtype, phase string, globallyUnused bool) ([]string, error) {
	query := `
		SELECT q.id FROM questions q
		WHERE q.type = ?
		  AND (? = '' OR q.phase = ?)
		  AND NOT EXISTS (
			SELECT 1 FROM question_usage u
			WHERE u.question_id = q.id AND u.competition_id = ?
		  )`
	if globallyUnused {
		query += ` AND q.is_used = 0`
	}
	query += ` ORDER BY q.created_at`

	rows, err := s.db.QueryContext(ctx, query, qtype, phase, phase, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkQuestionsUsed records consumption along both dimensions: the
// per-competition membership set and the global is_used flag.
func (s *SQLiteStore) MarkQuestionsUsed(ctx context.Context, competitionID string, questionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, qid := range questionIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO question_usage (question_id, competition_id) VALUES (?, ?)
			ON CONFLICT (question_id, competition_id) DO NOTHING
		`, qid, competitionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE questions SET is_used = 1 WHERE id = ?
		`, qid); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) QuestionsByIDs(ctx context.Context, ids []string) ([]QuestionItem, error) {
	questions := make([]QuestionItem, 0, len(ids))
	for _, id := range ids {
		q, err := s.GetQuestion(ctx, id)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ResetCompetitionUsage undoes only the per-competition marking: the
// global is_used flag stays as it is.
func (s *SQLiteStore) ResetCompetitionUsage(ctx context.Context, competitionID, qtype string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM question_usage
		WHERE competition_id = ?
		  AND (? = '' OR question_id IN (SELECT id FROM questions WHERE type = ?))
	`, competitionID, qtype, qtype)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
