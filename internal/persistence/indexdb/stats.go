package indexdb

import (
	"context"
	"database/sql"
	"fmt"
)

// RecipeStat aggregates plans and executor outcomes for one recipe.
type RecipeStat struct {
	RecipeID    string
	Plans       int
	Reported    int
	SlotsOK     int
	SlotsFailed int
}

// PlanStats reads committed rows only; requests still queued in the writer
// are not visible.
func (s *SQLiteIndex) PlanStats(ctx context.Context) ([]RecipeStat, error) {
	return planStats(ctx, s.db)
}

// QueryPlanStats opens the database at path, reads the stats and closes it.
func QueryPlanStats(ctx context.Context, path string) ([]RecipeStat, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return planStats(ctx, db)
}

func planStats(ctx context.Context, db *sql.DB) ([]RecipeStat, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.recipe_id,
		       COUNT(DISTINCT p.plan_id),
		       COUNT(DISTINCT r.plan_id),
		       COALESCE(SUM(CASE WHEN r.ok = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN r.ok = 0 THEN 1 ELSE 0 END), 0)
		FROM plans p
		LEFT JOIN reports r ON r.plan_id = p.plan_id
		GROUP BY p.recipe_id
		ORDER BY COUNT(DISTINCT p.plan_id) DESC, p.recipe_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("plan stats: %w", err)
	}
	defer rows.Close()

	var out []RecipeStat
	for rows.Next() {
		var st RecipeStat
		if err := rows.Scan(&st.RecipeID, &st.Plans, &st.Reported, &st.SlotsOK, &st.SlotsFailed); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
