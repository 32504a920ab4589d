package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// childTables whitelists the tables CountChildRows may touch. Table names
// cannot be parameterized in SQL, so anything else is rejected outright.
var childTables = map[string]string{
	"places":      "places",
	"itineraries": "itineraries",
}

// UserRepo implements lifecycle.UserStore against PostgreSQL.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a Postgres-backed user store.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) ListUsers(ctx context.Context, page, pageSize int) ([]domain.UserAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, created_at, last_sign_in_at,
		       email_confirmed_at, verified_at,
		       marketing_opt_in, founding_followup_sent
		FROM users
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, pageSize, page*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserAccount
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(
			&u.ID, &u.Email, &u.CreatedAt, &u.LastSignInAt,
			&u.ConfirmedAt, &u.VerifiedAt,
			&u.MarketingOptIn, &u.FoundingFollowupSent,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) CountChildRows(ctx context.Context, table string) (map[string]int, error) {
	name, ok := childTables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lifecycle.ErrUnknownChildTable, table)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT user_id, COUNT(*) FROM %s GROUP BY user_id`, name))
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ownerID string
		var n int
		if err := rows.Scan(&ownerID, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", table, err)
		}
		counts[ownerID] = n
	}
	return counts, rows.Err()
}
