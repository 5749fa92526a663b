package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (r *eventRepo) AppendTrainingEvent(ctx context.Context, data TrainingEventData) error {
	err := r.insert(ctx, event{
		table: "training_events",
		cols: []string{"session_id", "user_id", "action", "questions", "clarity",
			"score", "badge", "xp_gained", "level", "achievements"},
		values: []any{data.SessionID, data.UserID, data.Action, data.Questions, data.Clarity,
			data.Score, data.Badge, data.XPGained, data.Level, strings.Join(data.Achievements, ",")},
	})
	if err != nil {
		return fmt.Errorf("save training event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryTrainingEvents(ctx context.Context, opts QueryOpts) ([]TrainingEventRecord, error) {
	where, args := opts.filter()
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}

	query := `SELECT id, sequence, timestamp, session_id, user_id, action, questions,
		clarity, score, badge, xp_gained, level, achievements
		FROM training_events` + whereClause(where) + " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query training events: %w", err)
	}
	defer rows.Close()

	var out []TrainingEventRecord
	for rows.Next() {
		var (
			rec          TrainingEventRecord
			ts           int64
			achievements string
		)
		err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.UserID, &rec.Action,
			&rec.Questions, &rec.Clarity, &rec.Score, &rec.Badge, &rec.XPGained,
			&rec.Level, &achievements,
		)
		if err != nil {
			return nil, fmt.Errorf("scan training event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		if achievements != "" {
			rec.Achievements = strings.Split(achievements, ",")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
