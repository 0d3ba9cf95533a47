// cmd/tools/catalog-seeder/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"underwriting-workers/internal/common/config"
	"underwriting-workers/internal/common/database"
	"underwriting-workers/pkg/catalog"
)

const catalogCacheKey = "underwriting:catalog:active"

func main() {
	catalogPath := flag.String("catalog", "configs/lender-catalog.json", "Path to the lender catalog JSON file")
	validateOnly := flag.Bool("validate", false, "Validate the catalog file without touching the database")
	flushCache := flag.Bool("flush-cache", true, "Invalidate the cached catalog snapshot in Redis after seeding")
	flag.Parse()

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Printf("Catalog validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catalog %s OK: %d lenders, %d active programs\n",
		cat.Version, len(cat.Lenders), cat.ActivePrograms())

	if *validateOnly {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Postgres connection failed: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	seeded, err := seed(ctx, pg.DB, cat)
	if err != nil {
		fmt.Printf("Seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d lenders, %d programs, %d criteria\n",
		seeded.lenders, seeded.programs, seeded.criteria)

	if *flushCache {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			fmt.Printf("Warning: redis connection failed, catalog cache not invalidated: %v\n", err)
			return
		}
		defer rdb.Close()
		if err := rdb.Del(ctx, catalogCacheKey); err != nil {
			fmt.Printf("Warning: failed to invalidate catalog cache: %v\n", err)
			return
		}
		fmt.Println("Catalog cache invalidated")
	}
}

type seedCounts struct {
	lenders  int
	programs int
	criteria int
}

// seed upserts lenders and programs by name and rewrites each program's
// criteria so the database mirrors the file exactly.
func seed(ctx context.Context, db *sql.DB, cat *catalog.LenderCatalog) (*seedCounts, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	counts := &seedCounts{}

	for _, lender := range cat.Lenders {
		var lenderID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO lenders (name, display_name, is_active, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (name) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    is_active = EXCLUDED.is_active,
			    updated_at = NOW()
			RETURNING id`,
			lender.Name, lender.DisplayName, lender.IsActive).Scan(&lenderID)
		if err != nil {
			return nil, fmt.Errorf("upsert lender %s: %w", lender.Name, err)
		}
		counts.lenders++

		for _, program := range lender.Programs {
			var programID int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO lender_programs (lender_id, name, is_active, priority, updated_at)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (lender_id, name) DO UPDATE
				SET is_active = EXCLUDED.is_active,
				    priority = EXCLUDED.priority,
				    updated_at = NOW()
				RETURNING id`,
				lenderID, program.Name, program.IsActive, program.Priority).Scan(&programID)
			if err != nil {
				return nil, fmt.Errorf("upsert program %s/%s: %w", lender.Name, program.Name, err)
			}
			counts.programs++

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM policy_criteria WHERE program_id = $1`, programID); err != nil {
				return nil, fmt.Errorf("clear criteria for program %s: %w", program.Name, err)
			}

			for _, criterion := range program.Criteria {
				var listValues interface{}
				if len(criterion.ListValues) > 0 {
					data, err := json.Marshal(criterion.ListValues)
					if err != nil {
						return nil, fmt.Errorf("marshal list values for criterion %s: %w", criterion.Name, err)
					}
					listValues = data
				}

				if _, err := tx.ExecContext(ctx, `
					INSERT INTO policy_criteria
						(program_id, criteria_type, name, operator,
						 numeric_value, numeric_value_min, numeric_value_max,
						 string_value, list_values, is_required, weight, failure_message, is_active)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
					programID, criterion.Type, criterion.Name, criterion.Operator,
					criterion.NumericValue, criterion.NumericValueMin, criterion.NumericValueMax,
					criterion.StringValue, listValues, criterion.IsRequired, criterion.Weight,
					criterion.FailureMessage, criterion.IsActive); err != nil {
					return nil, fmt.Errorf("insert criterion %s: %w", criterion.Name, err)
				}
				counts.criteria++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return counts, nil
}
