package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/types"
)

// MaxListLimit caps the row count of a single list query
const MaxListLimit = 200

// knownColumns is the set of projectable columns on the listings table
var knownColumns = map[string]struct{}{
	"id": {}, "user_id": {}, "title": {}, "price": {}, "status": {},
	"category": {}, "condition": {}, "created_at": {}, "updated_at": {},
	"first_photo_ref": {}, "photos": {}, "measurements": {}, "keywords": {},
	"description": {}, "purchase_price": {}, "net_profit": {},
	"profit_margin": {}, "purchase_date": {}, "consignment_status": {},
	"source_type": {}, "source_location": {}, "cost_basis": {},
	"days_to_sell": {}, "performance_notes": {},
}

// ListQuery describes one page of a filtered, sorted, projected listing
// query. All queries are scoped to a user; the fixed sort order is
// created_at descending.
type ListQuery struct {
	UserID string
	Filter models.FilterSpec
	Limit  int
	Cursor *models.Cursor
}

// ListingRepository executes listing queries against Postgres
type ListingRepository struct {
	db *PostgresDB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *PostgresDB) *ListingRepository {
	return &ListingRepository{db: db}
}

// validateListQuery rejects malformed queries before they reach the store
func validateListQuery(q *ListQuery) *apperrors.ReadError {
	if q.UserID == "" {
		return apperrors.NewValidationError("userId", "must not be empty")
	}
	if q.Limit <= 0 {
		return apperrors.NewValidationError("limit", "must be positive")
	}
	if q.Limit > MaxListLimit {
		return apperrors.NewValidationError("limit", fmt.Sprintf("must not exceed %d", MaxListLimit))
	}
	return nil
}

// ValidateProjection rejects column lists referencing unknown columns
func ValidateProjection(columns []string) *apperrors.ReadError {
	if len(columns) == 0 {
		return apperrors.NewValidationError("columns", "projection must not be empty")
	}
	for _, col := range columns {
		if _, ok := knownColumns[col]; !ok {
			return apperrors.NewValidationError("columns", fmt.Sprintf("unknown column %q", col))
		}
	}
	return nil
}

// buildListQuery assembles the SQL and arguments for a list query.
// Split out from List so the query shape is unit-testable without a
// live database.
func buildListQuery(q *ListQuery) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(fields.SummaryColumns, ", "))
	sb.WriteString(" FROM listings WHERE user_id = $1")

	args := []interface{}{q.UserID}
	arg := 2

	if q.Filter.StatusFilter != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", arg))
		args = append(args, string(q.Filter.StatusFilter))
		arg++
	}
	if q.Filter.CategoryFilter != "" {
		sb.WriteString(fmt.Sprintf(" AND category = $%d", arg))
		args = append(args, q.Filter.CategoryFilter)
		arg++
	}
	if q.Filter.SearchTerm != "" {
		sb.WriteString(fmt.Sprintf(" AND title ILIKE $%d", arg))
		args = append(args, "%"+q.Filter.SearchTerm+"%")
		arg++
	}
	if q.Cursor != nil {
		// Strict bound against the fixed descending order: the cursor
		// row itself is never revisited.
		sb.WriteString(fmt.Sprintf(" AND created_at < $%d", arg))
		args = append(args, q.Cursor.CreatedAt)
		arg++
	}

	sb.WriteString(" ORDER BY created_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", arg))
	args = append(args, q.Limit)

	return sb.String(), args
}

// List executes a filtered, sorted, cursor-paginated summary query
func (r *ListingRepository) List(ctx context.Context, q *ListQuery) ([]models.ListingSummary, error) {
	if verr := validateListQuery(q); verr != nil {
		return nil, verr
	}

	query, args := buildListQuery(q)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Classify("list listings", err)
	}
	defer rows.Close()

	listings := make([]models.ListingSummary, 0, q.Limit)
	for rows.Next() {
		var (
			summary  models.ListingSummary
			rawPrice interface{}
			photoRef *string
		)
		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&rawPrice,
			&summary.Status,
			&summary.Category,
			&summary.Condition,
			&summary.CreatedAt,
			&photoRef,
		)
		if err != nil {
			return nil, apperrors.Classify("scan listing row", err)
		}
		if price, ok := coerceFloat(rawPrice); ok {
			summary.Price = price
		}
		summary.FirstPhotoRef = photoRef
		listings = append(listings, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Classify("list listings", err)
	}

	return listings, nil
}

// GetByID fetches a single listing with an arbitrary column projection.
// Rows come back as loosely typed values keyed by column name and are
// coerced into the closed ListingDetail shape at this boundary.
func (r *ListingRepository) GetByID(ctx context.Context, userID, id string, columns []string) (*models.ListingDetail, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId", "must not be empty")
	}
	if id == "" {
		return nil, apperrors.NewValidationError("id", "must not be empty")
	}
	if verr := ValidateProjection(columns); verr != nil {
		return nil, verr
	}

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE user_id = $1 AND id = $2",
		strings.Join(columns, ", "),
	)

	rows, err := r.db.Pool().Query(ctx, query, userID, id)
	if err != nil {
		return nil, apperrors.Classify("get listing", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.Classify("get listing", err)
		}
		return nil, apperrors.NewNotFoundError("listing", id)
	}

	values, err := rows.Values()
	if err != nil {
		return nil, apperrors.Classify("read listing row", err)
	}

	row := make(map[string]interface{}, len(columns))
	for i, desc := range rows.FieldDescriptions() {
		row[string(desc.Name)] = values[i]
	}

	return detailFromRow(row), nil
}

// Probe runs the cheapest possible query against the store. Used by the
// health monitor; payload delivery is irrelevant here, only liveness.
func (r *ListingRepository) Probe(ctx context.Context) error {
	var one int
	if err := r.db.Pool().QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return apperrors.Classify("probe", err)
	}
	return nil
}

// detailFromRow coerces a loosely typed row map into a ListingDetail.
// Absent columns leave their fields nil.
func detailFromRow(row map[string]interface{}) *models.ListingDetail {
	detail := &models.ListingDetail{}

	if v, ok := coerceString(row["id"]); ok {
		detail.ID = v
	}
	if v, ok := coerceString(row["title"]); ok {
		detail.Title = v
	}
	if v, ok := coerceFloat(row["price"]); ok {
		detail.Price = v
	}
	if v, ok := coerceString(row["status"]); ok {
		detail.Status = types.ListingStatus(v)
	}
	if v, ok := coerceString(row["category"]); ok {
		detail.Category = v
	}
	if v, ok := coerceString(row["condition"]); ok {
		detail.Condition = types.ListingCondition(v)
	}
	if v, ok := coerceTime(row["created_at"]); ok {
		detail.CreatedAt = v
	}
	if v, ok := coerceTime(row["updated_at"]); ok {
		detail.UpdatedAt = v
	}
	if v, ok := coerceString(row["first_photo_ref"]); ok {
		detail.FirstPhotoRef = &v
	}
	if v, ok := coerceStringSlice(row["photos"]); ok {
		detail.Photos = v
	}
	if v, ok := coerceString(row["description"]); ok {
		detail.Description = &v
	}
	if v, ok := coerceString(row["measurements"]); ok {
		detail.Measurements = &v
	}
	if v, ok := coerceStringSlice(row["keywords"]); ok {
		detail.Keywords = v
	}
	if v, ok := coerceFloat(row["purchase_price"]); ok {
		detail.PurchasePrice = &v
	}
	if v, ok := coerceFloat(row["net_profit"]); ok {
		detail.NetProfit = &v
	}
	if v, ok := coerceFloat(row["profit_margin"]); ok {
		detail.ProfitMargin = &v
	}
	if v, ok := coerceTime(row["purchase_date"]); ok {
		detail.PurchaseDate = &v
	}
	if v, ok := coerceString(row["consignment_status"]); ok {
		detail.ConsignmentStatus = &v
	}
	if v, ok := coerceString(row["source_type"]); ok {
		detail.SourceType = &v
	}
	if v, ok := coerceString(row["source_location"]); ok {
		detail.SourceLocation = &v
	}
	if v, ok := coerceFloat(row["cost_basis"]); ok {
		detail.CostBasis = &v
	}
	if v, ok := coerceInt(row["days_to_sell"]); ok {
		detail.DaysToSell = &v
	}
	if v, ok := coerceString(row["performance_notes"]); ok {
		detail.PerformanceNotes = &v
	}

	return detail
}

// Wire-shape coercion helpers. The store returns loosely typed values
// (numerics may arrive as strings, arrays as []interface{}); these
// normalize them rather than trusting the wire shape.

func coerceString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func coerceTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func coerceStringSlice(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := coerceString(item); ok {
				out = append(out, str)
			}
		}
		return out, true
	case string:
		// Single scalar where a list was expected
		if s == "" {
			return nil, true
		}
		return []string{s}, true
	default:
		return nil, false
	}
}
