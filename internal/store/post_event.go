package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const postTable = "post_events"

func (r *eventRepo) AppendPostEvent(ctx context.Context, data PostEventData) error {
	err := r.insert(ctx, postTable,
		[]string{
			"run_id", "question_id", "variant", "success",
			"message_id", "status_code", "error_message",
		},
		data.RunID, data.QuestionID, data.Variant, data.Success,
		data.MessageID, data.StatusCode, data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save post event: %w", err)
	}
	return nil
}

// QueryPostEvents returns publish attempts, newest first.
func (r *eventRepo) QueryPostEvents(ctx context.Context, opts QueryOpts) ([]PostEvent, error) {
	b := builder()
	sel := b.Select(
		"id", "sequence", "timestamp", "run_id", "question_id", "variant",
		"success", "message_id", "status_code", "error_message",
	).
		From(b.Table(postTable)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query post events: %w", err)
	}
	defer rows.Close()

	var events []PostEvent
	for rows.Next() {
		var (
			ev PostEvent
			ts int64
		)
		err := rows.Scan(
			&ev.ID, &ev.Sequence, &ts, &ev.RunID, &ev.QuestionID, &ev.Variant,
			&ev.Success, &ev.MessageID, &ev.StatusCode, &ev.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post event: %w", err)
		}
		ev.Timestamp = fromMillis(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}
