package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
)

var referenceFields = []string{
	"id", "table_id", "table_number", "title", "system_type", "asrs_type", "container_type",
	"commodity_class", "ceiling_height_ft", "k_factor", "pressure_psi", "pressure_bar",
	"sprinkler_count", "special_conditions",
}

// ReferenceRepo reads sprinkler design rows through the fm_reference_rows
// view, which joins each config to its table's categorical keys.
type ReferenceRepo struct {
	db *sql.DB
}

func NewReferenceRepo(db *sql.DB) *ReferenceRepo {
	return &ReferenceRepo{db: db}
}

func (r *ReferenceRepo) Rows(ctx context.Context, keys model.ReferenceKeys) ([]model.ReferenceRow, error) {
	where := map[string]interface{}{
		"_orderby": "ceiling_height_ft asc, table_number asc, table_id asc, id asc",
	}
	if keys.TableID != "" {
		where["_custom_table"] = builder.Custom("lower(table_id) = lower(?)", keys.TableID)
	}
	if keys.SystemType != "" {
		where["system_type"] = string(keys.SystemType)
	}
	if keys.ASRSType != "" {
		where["asrs_type"] = string(keys.ASRSType)
	}
	if keys.ContainerType != "" {
		where["container_type"] = string(keys.ContainerType)
	}
	if keys.CommodityClass != "" {
		where["commodity_class"] = string(keys.CommodityClass)
	}
	if keys.KFactor > 0 {
		where["_custom_k"] = builder.Custom("abs(k_factor - ?) <= 1e-6", keys.KFactor)
	}
	sqlStr, args, err := builder.BuildSelect("fm_reference_rows", where, referenceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query reference rows: %w", err)
	}
	defer rows.Close()
	out := make([]model.ReferenceRow, 0)
	for rows.Next() {
		var (
			row                                        model.ReferenceRow
			systemType, asrsType, container, commodity string
			conditions                                 pq.StringArray
		)
		if err := rows.Scan(&row.ID, &row.TableID, &row.TableNumber, &row.Title, &systemType, &asrsType, &container,
			&commodity, &row.CeilingHeightFt, &row.KFactor, &row.PressurePSI, &row.PressureBar,
			&row.SprinklerCount, &conditions); err != nil {
			return nil, err
		}
		row.SystemType = model.SystemType(systemType)
		row.ASRSType = model.ASRSType(asrsType)
		row.ContainerType = model.ContainerType(container)
		row.CommodityClass = model.CommodityClass(commodity)
		row.SpecialConditions = []string(conditions)
		out = append(out, row)
	}
	return out, rows.Err()
}
