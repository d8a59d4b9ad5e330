package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const lessonColumns = `id,title,description,goal,game_type,difficulty,order_index,config_json,time_limit_sec,is_published,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (Lesson, error) {
	var (
		l     Lesson
		gt    string
		cjson string
		limit sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Goal, &gt, &l.Difficulty, &l.OrderIndex,
		&cjson, &limit, &l.IsPublished, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return Lesson{}, err
	}
	l.GameType = grading.GameType(gt)
	l.Config = grading.DecodeStored(l.GameType, json.RawMessage(cjson))
	if limit.Valid {
		v := int(limit.Int64)
		l.TimeLimit = &v
	}
	return l, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Lesson, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id=$1`, id)
	l, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrNotFound
		}
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Lesson, error) {
	q := `SELECT ` + lessonColumns + ` FROM lessons`
	if opts.PublishedOnly {
		q += ` WHERE is_published = TRUE`
	}
	q += ` ORDER BY order_index, id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) Create(ctx context.Context, l Lesson) (Lesson, error) {
	cj, err := configJSON(l.Config)
	if err != nil {
		return Lesson{}, err
	}
	now := time.Now().Unix()
	err = s.db.QueryRowContext(ctx, `INSERT INTO lessons
		(title,description,goal,game_type,difficulty,order_index,config_json,time_limit_sec,is_published,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		l.Title, l.Description, l.Goal, string(l.GameType), string(l.Difficulty), l.OrderIndex,
		cj, nullInt(l.TimeLimit), l.IsPublished, now, now).Scan(&l.ID)
	if err != nil {
		return Lesson{}, err
	}
	l.CreatedAt, l.UpdatedAt = now, now
	return l, nil
}

func (s *SQLStore) Update(ctx context.Context, l Lesson) (Lesson, error) {
	cj, err := configJSON(l.Config)
	if err != nil {
		return Lesson{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE lessons SET
		title=$1, description=$2, goal=$3, game_type=$4, difficulty=$5, order_index=$6,
		config_json=$7, time_limit_sec=$8, is_published=$9, updated_at=$10
		WHERE id=$11`,
		l.Title, l.Description, l.Goal, string(l.GameType), string(l.Difficulty), l.OrderIndex,
		cj, nullInt(l.TimeLimit), l.IsPublished, time.Now().Unix(), l.ID)
	if err != nil {
		return Lesson{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Lesson{}, ErrNotFound
	}
	return s.Get(ctx, l.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM lessons`).Scan(&n)
	return n, err
}

func configJSON(cfg grading.Config) (string, error) {
	if cfg == nil {
		return "{}", nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
