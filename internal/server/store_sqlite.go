package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)
	`, uuid.NewString(), email, passwordHash)
	return err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) ListSchools(ctx context.Context) ([]School, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, code, COALESCE(contact_name, ''), COALESCE(contact_phone, ''),
			COALESCE(contact_email, ''),
			(SELECT COUNT(*) FROM teams t WHERE t.school_id = schools.id),
			created_at
		FROM schools
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []School{}
	for rows.Next() {
		var sc School
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Code, &sc.ContactName, &sc.ContactPhone,
			&sc.ContactEmail, &sc.TeamCount, &sc.CreatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, sc)
	}
	return schools, rows.Err()
}

func (s *SQLiteStore) CreateSchool(ctx context.Context, req SchoolRequest) (School, error) {
	id := uuid.NewString()
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO schools (id, name, code, contact_name, contact_phone, contact_email)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
		RETURNING created_at
	`, id, req.Name, req.Code, req.ContactName, req.ContactPhone, req.ContactEmail).Scan(&createdAt)
	if isUniqueViolation(err) {
		return School{}, ErrConflict
	}
	if err != nil {
		return School{}, err
	}

	return School{
		ID:           id,
		Name:         req.Name,
		Code:         req.Code,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		CreatedAt:    createdAt,
	}, nil
}

func (s *SQLiteStore) GetSchool(ctx context.Context, id string) (School, error) {
	var sc School
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, COALESCE(contact_name, ''), COALESCE(contact_phone, ''),
			COALESCE(contact_email, ''),
			(SELECT COUNT(*) FROM teams t WHERE t.school_id = schools.id),
			created_at
		FROM schools WHERE id = ?
	`, id).Scan(&sc.ID, &sc.Name, &sc.Code, &sc.ContactName, &sc.ContactPhone,
		&sc.ContactEmail, &sc.TeamCount, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return School{}, ErrNotFound
	}
	return sc, err
}

func (s *SQLiteStore) UpdateSchool(ctx context.Context, id string, req SchoolRequest) (School, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		UPDATE schools
		SET name = ?, code = ?, contact_name = NULLIF(?, ''),
			contact_phone = NULLIF(?, ''), contact_email = NULLIF(?, '')
		WHERE id = ?
		RETURNING created_at
	`, req.Name, req.Code, req.ContactName, req.ContactPhone, req.ContactEmail, id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return School{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return School{}, ErrConflict
	}
	if err != nil {
		return School{}, err
	}
	return s.GetSchool(ctx, id)
}

func (s *SQLiteStore) DeleteSchool(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schools WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SchoolHasTeams(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM teams WHERE school_id = ?
	`, id).Scan(&count)
	return count > 0, err
}

const teamColumns = `
	t.id, t.name, t.school_id, sc.name, t.stage,
	COALESCE((SELECT SUM(s.score) FROM scores s WHERE s.team_id = t.id), 0),
	COALESCE((SELECT g.id FROM group_members gm JOIN groups g ON g.id = gm.group_id WHERE gm.team_id = t.id LIMIT 1), ''),
	t.created_at`

func scanTeam(row interface{ Scan(...any) error }) (TeamItem, error) {
	var t TeamItem
	err := row.Scan(&t.ID, &t.Name, &t.SchoolID, &t.SchoolName, &t.Stage,
		&t.TotalScore, &t.GroupID, &t.CreatedAt)
	return t, err
}

func (s *SQLiteStore) ListTeams(ctx context.Context) ([]TeamItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+teamColumns+`
		FROM teams t
		JOIN schools sc ON sc.id = t.school_id
		ORDER BY t.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []TeamItem{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, req TeamRequest) (TeamItem, error) {
	var schoolName string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM schools WHERE id = ?`, req.SchoolID).Scan(&schoolName)
	if errors.Is(err, sql.ErrNoRows) {
		return TeamItem{}, ErrNotFound
	}
	if err != nil {
		return TeamItem{}, err
	}

	id := uuid.NewString()
	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, school_id, name) VALUES (?, ?, ?)
		RETURNING created_at
	`, id, req.SchoolID, req.Name).Scan(&createdAt)
	if err != nil {
		return TeamItem{}, err
	}

	return TeamItem{
		ID:         id,
		Name:       req.Name,
		SchoolID:   req.SchoolID,
		SchoolName: schoolName,
		Stage:      "group",
		CreatedAt:  createdAt,
	}, nil
}

func (s *SQLiteStore) CreateTeamsForSchool(ctx context.Context, schoolID string, names []string) ([]TeamItem, error) {
	var schoolName string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM schools WHERE id = ?`, schoolID).Scan(&schoolName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams := make([]TeamItem, 0, len(names))
	for _, name := range names {
		id := uuid.NewString()
		var createdAt string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO teams (id, school_id, name) VALUES (?, ?, ?)
			RETURNING created_at
		`, id, schoolID, name).Scan(&createdAt)
		if err != nil {
			return nil, err
		}
		teams = append(teams, TeamItem{
			ID:         id,
			Name:       name,
			SchoolID:   schoolID,
			SchoolName: schoolName,
			Stage:      "group",
			CreatedAt:  createdAt,
		})
	}

	return teams, tx.Commit()
}

func (s *SQLiteStore) GetTeam(ctx context.Context, id string) (TeamItem, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		SELECT `+teamColumns+`
		FROM teams t
		JOIN schools sc ON sc.id = t.school_id
		WHERE t.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return TeamItem{}, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) UpdateTeam(ctx context.Context, id string, req TeamRequest) (TeamItem, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name = ?, school_id = ? WHERE id = ?
	`, req.Name, req.SchoolID, id)
	if err != nil {
		return TeamItem{}, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return TeamItem{}, ErrNotFound
	}
	return s.GetTeam(ctx, id)
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TeamTotalScore is the read-through projection of a team's global
// score: the sum of its per-competition ledger rows.
func (s *SQLiteStore) TeamTotalScore(ctx context.Context, id string) (int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	var total int
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(score), 0) FROM scores WHERE team_id = ?
	`, id).Scan(&total)
	return total, err
}

// MissingTeams returns the subset of ids that do not resolve to teams.
func (s *SQLiteStore) MissingTeams(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return missing, nil
}

const questionColumns = `
	q.id, q.text, q.type, q.options, q.correct_answer,
	COALESCE(q.media_url, ''), COALESCE(q.media_kind, ''),
	COALESCE(q.difficulty, ''), COALESCE(q.category, ''),
	q.points, q.phase, q.is_used, q.created_at`

func scanQuestion(row interface{ Scan(...any) error }) (QuestionItem, error) {
	var q QuestionItem
	var options, answer string
	var isUsed int
	err := row.Scan(&q.ID, &q.Text, &q.Type, &options, &answer,
		&q.MediaURL, &q.MediaKind, &q.Difficulty, &q.Category,
		&q.Points, &q.Phase, &isUsed, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	q.IsUsed = isUsed != 0
	json.Unmarshal([]byte(options), &q.Options)
	if q.Options == nil {
		q.Options = []string{}
	}
	q.CorrectAnswer = json.RawMessage(answer)
	return q, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]QuestionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions q
		WHERE (? = '' OR q.type = ?)
		  AND (? = '' OR q.phase = ?)
		  AND (? = '' OR q.category = ?)
		ORDER BY q.created_at
	`, f.Type, f.Type, f.Phase, f.Phase, f.Category, f.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []QuestionItem{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, req QuestionRequest) (QuestionItem, error) {
	options, _ := json.Marshal(req.Options)
	answer := req.CorrectAnswer
	if len(answer) == 0 {
		answer = json.RawMessage(`""`)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions
			(id, text, type, options, correct_answer, media_url, media_kind,
			 difficulty, category, points, phase)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)
	`, id, req.Text, req.Type, string(options), string(answer), req.MediaURL,
		req.MediaKind, req.Difficulty, req.Category, req.Points, req.Phase)
	if err != nil {
		return QuestionItem{}, err
	}
	return s.GetQuestion(ctx, id)
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (QuestionItem, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions q WHERE q.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return QuestionItem{}, ErrNotFound
	}
	if err != nil {
		return QuestionItem{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT competition_id FROM question_usage WHERE question_id = ? ORDER BY used_at
	`, id)
	if err != nil {
		return QuestionItem{}, err
	}
	defer rows.Close()

	q.UsedInCompetitions = []string{}
	for rows.Next() {
		var compID string
		if err := rows.Scan(&compID); err != nil {
			return QuestionItem{}, err
		}
		q.UsedInCompetitions = append(q.UsedInCompetitions, compID)
	}
	return q, rows.Err()
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, id string, req QuestionRequest) (QuestionItem, error) {
	options, _ := json.Marshal(req.Options)
	answer := req.CorrectAnswer
	if len(answer) == 0 {
		answer = json.RawMessage(`""`)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET text = ?, type = ?, options = ?, correct_answer = ?,
			media_url = NULLIF(?, ''), media_kind = NULLIF(?, ''),
			difficulty = NULLIF(?, ''), category = NULLIF(?, ''),
			points = ?, phase = ?
		WHERE id = ?
	`, req.Text, req.Type, string(options), string(answer), req.MediaURL,
		req.MediaKind, req.Difficulty, req.Category, req.Points, req.Phase, id)
	if err != nil {
		return QuestionItem{}, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return QuestionItem{}, ErrNotFound
	}
	return s.GetQuestion(ctx, id)
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetQuestionUsage clears the global is_used flag on questions
// matching f. With global set it also forgets every per-competition
// usage of those questions. Returns how many questions were cleared.
func (s *SQLiteStore) ResetQuestionUsage(ctx context.Context, f QuestionFilter, global bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE questions SET is_used = 0
		WHERE (? = '' OR type = ?) AND (? = '' OR phase = ?)
	`, f.Type, f.Type, f.Phase, f.Phase)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()

	if global {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM question_usage
			WHERE question_id IN (
				SELECT id FROM questions
				WHERE (? = '' OR type = ?) AND (? = '' OR phase = ?)
			)
		`, f.Type, f.Type, f.Phase, f.Phase)
		if err != nil {
			return 0, err
		}
	}

	return n, tx.Commit()
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (Settings, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		// Lazily create the singleton with defaults on first read.
		defaults := defaultSettings()
		data, _ := json.Marshal(defaults)
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO settings (id, payload) VALUES (1, ?)
			ON CONFLICT (id) DO NOTHING
		`, string(data)); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return Settings{}, err
	}

	var out Settings
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (s *SQLiteStore) UpdateSettings(ctx context.Context, in Settings) (Settings, error) {
	data, _ := json.Marshal(in)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, payload) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload
	`, string(data))
	if err != nil {
		return Settings{}, err
	}
	return in, nil
}
