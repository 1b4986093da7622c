package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	"github.com/statera-app/statera/internal/models"
	"github.com/statera-app/statera/internal/utils/mapping"
	"github.com/statera-app/statera/internal/utils/pagination"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entry and line data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, owner_id, entry_date, memo, source, source_id, currency_code, status, void_reason, reversal_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, direction, amount, currency_code, fx_rate, event_type, created_at, created_by, last_updated_at, last_updated_by`

// postedOrReconciled is the status filter shared by every aggregate query.
// Drafts and voided entries never contribute to balances or matching.
const postedOrReconciled = `('posted', 'reconciled')`

// SaveEntry inserts an entry and its lines atomically in a new transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.SaveEntryInTx(ctx, tx, entry, lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveEntryInTx inserts an entry and its lines using the caller's transaction.
func (r *PgxJournalRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error {
	modelEntry := mapping.ToModelEntry(entry)
	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.OwnerID,
		modelEntry.EntryDate,
		modelEntry.Memo,
		modelEntry.Source,
		modelEntry.SourceID,
		modelEntry.CurrencyCode,
		modelEntry.Status,
		modelEntry.VoidReason,
		modelEntry.ReversalEntryID,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert journal entry "+modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, line := range lines {
		modelLine := mapping.ToModelLine(line)
		batch.Queue(lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountID,
			modelLine.Direction,
			modelLine.Amount,
			modelLine.CurrencyCode,
			modelLine.FxRate,
			modelLine.EventType,
			modelLine.CreatedAt,
			modelLine.CreatedBy,
			modelLine.LastUpdatedAt,
			modelLine.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute line batch for entry "+modelEntry.EntryID, err)
	}
	return nil
}

// FindEntryByID retrieves an entry with its lines, scoped to the owner.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE entry_id = $1 AND owner_id = $2;
	`
	modelEntry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry by ID "+entryID, err)
	}

	lines, err := r.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	domainEntry := mapping.ToDomainEntry(modelEntry)
	domainEntry.Lines = lines
	return &domainEntry, nil
}

// FindEntryByIDForUpdate retrieves an entry with its lines, locking the entry
// row for the duration of the caller's transaction.
func (r *PgxJournalRepository) FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE entry_id = $1 AND owner_id = $2
		FOR UPDATE;
	`
	modelEntry, err := scanEntry(tx.QueryRow(ctx, query, entryID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock journal entry "+entryID, err)
	}

	lineQuery := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := tx.Query(ctx, lineQuery, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan lines for entry "+entryID, err)
	}

	domainEntry := mapping.ToDomainEntry(modelEntry)
	domainEntry.Lines = mapping.ToDomainLineSlice(lines)
	return &domainEntry, nil
}

// FindLinesByEntryID retrieves all lines of a single entry.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan lines for entry "+entryID, err)
	}
	return mapping.ToDomainLineSlice(lines), nil
}

// FindLinesByEntryIDs retrieves the lines of several entries in one query,
// grouped by entry ID.
func (r *PgxJournalRepository) FindLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	result := make(map[string][]domain.JournalLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entries", err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan line rows", err)
	}
	for _, line := range lines {
		result[line.EntryID] = append(result[line.EntryID], mapping.ToDomainLine(line))
	}
	return result, nil
}

// UpdateEntryStatusInTx transitions an entry's status, setting the void fields
// when present.
func (r *PgxJournalRepository) UpdateEntryStatusInTx(ctx context.Context, tx pgx.Tx, entryID string, update portsrepo.EntryStatusUpdate) error {
	query := `
		UPDATE journal_entries
		SET status = $2,
		    void_reason = COALESCE($3, void_reason),
		    reversal_entry_id = COALESCE($4, reversal_entry_id),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE entry_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		entryID,
		string(update.Status),
		update.VoidReason,
		update.ReversalEntryID,
		update.UpdatedAt,
		update.UpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of entry "+entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry not found: " + entryID)
	}
	return nil
}

// ListEntriesByOwner retrieves a page of entries using token-based pagination,
// newest first. It returns the entries and a token for the next page.
func (r *PgxJournalRepository) ListEntriesByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE owner_id = $1
	`
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	args := []interface{}{ownerID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (entry_date, created_at) < ($2, $3)`
		args = append(args, lastEntryDate, lastCreatedAt)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for owner "+ownerID, err)
	}
	defer rows.Close()

	modelEntries := []models.JournalEntry{}
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}

	var newNextToken *string
	if len(modelEntries) == fetchLimit {
		last := modelEntries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
		modelEntries = modelEntries[:limit]
	}

	entries := make([]domain.JournalEntry, len(modelEntries))
	for i, m := range modelEntries {
		entries[i] = mapping.ToDomainEntry(m)
	}
	return entries, newNextToken, nil
}

// FindCandidateEntries returns posted/reconciled manual or system entries of
// the owner within the date window, ordered by amount proximity then date
// proximity to the reference transaction. The entry amount is the sum of its
// debit lines.
func (r *PgxJournalRepository) FindCandidateEntries(ctx context.Context, ownerID string, amount decimal.Decimal, refDate, dateFrom, dateTo time.Time, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 25
	}
	query := `
		SELECT ` + prefixColumns("e", entryColumns) + `
		FROM journal_entries e
		JOIN (
			SELECT entry_id, SUM(amount) FILTER (WHERE direction = 'DEBIT') AS total
			FROM journal_lines
			GROUP BY entry_id
		) totals ON totals.entry_id = e.entry_id
		WHERE e.owner_id = $1
		  AND e.status IN ` + postedOrReconciled + `
		  AND e.source IN ('manual', 'system')
		  AND e.entry_date >= $2 AND e.entry_date <= $3
		ORDER BY ABS(totals.total - $4),
		         ABS(EXTRACT(EPOCH FROM (e.entry_date - $5::timestamptz))),
		         e.entry_id
		LIMIT $6;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID, dateFrom, dateTo, amount, refDate, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query candidate entries for owner "+ownerID, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan candidate entry row", err)
		}
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating candidate entry rows", err)
	}
	return entries, nil
}

// SumLinesByAccount sums debit and credit amounts over posted/reconciled
// entries of one account.
func (r *PgxJournalRepository) SumLinesByAccount(ctx context.Context, accountID string) (domain.LineSums, error) {
	query := `
		SELECT COALESCE(SUM(l.amount) FILTER (WHERE l.direction = 'DEBIT'), 0),
		       COALESCE(SUM(l.amount) FILTER (WHERE l.direction = 'CREDIT'), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.status IN ` + postedOrReconciled + `;
	`
	var sums domain.LineSums
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&sums.DebitTotal, &sums.CreditTotal); err != nil {
		return domain.LineSums{}, apperrors.NewAppError(500, "failed to sum lines for account "+accountID, err)
	}
	return sums, nil
}

// SumLinesByOwner returns per-account debit/credit sums over posted/reconciled
// entries of the owner.
func (r *PgxJournalRepository) SumLinesByOwner(ctx context.Context, ownerID string) (map[string]domain.LineSums, error) {
	query := `
		SELECT l.account_id,
		       COALESCE(SUM(l.amount) FILTER (WHERE l.direction = 'DEBIT'), 0),
		       COALESCE(SUM(l.amount) FILTER (WHERE l.direction = 'CREDIT'), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.owner_id = $1 AND e.status IN ` + postedOrReconciled + `
		GROUP BY l.account_id;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum lines for owner "+ownerID, err)
	}
	defer rows.Close()

	sums := map[string]domain.LineSums{}
	for rows.Next() {
		var accountID string
		var s domain.LineSums
		if err := rows.Scan(&accountID, &s.DebitTotal, &s.CreditTotal); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line sum row", err)
		}
		sums[accountID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line sum rows", err)
	}
	return sums, nil
}

// FindProcessingLegs returns every posted/reconciled entry together with its
// line touching the given account.
func (r *PgxJournalRepository) FindProcessingLegs(ctx context.Context, accountID string) ([]domain.ProcessingLeg, error) {
	query := `
		SELECT ` + prefixColumns("e", entryColumns) + `, ` + prefixColumns("l", lineColumns) + `
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.status IN ` + postedOrReconciled + `
		ORDER BY e.entry_date, e.entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query legs for account "+accountID, err)
	}
	defer rows.Close()

	legs := []domain.ProcessingLeg{}
	for rows.Next() {
		var me models.JournalEntry
		var sourceID, voidReason, reversalID sql.NullString
		var ml models.JournalLine
		var fxRate sql.NullString
		var eventType sql.NullString
		err := rows.Scan(
			&me.EntryID, &me.OwnerID, &me.EntryDate, &me.Memo, &me.Source, &sourceID,
			&me.CurrencyCode, &me.Status, &voidReason, &reversalID,
			&me.CreatedAt, &me.CreatedBy, &me.LastUpdatedAt, &me.LastUpdatedBy,
			&ml.LineID, &ml.EntryID, &ml.AccountID, &ml.Direction, &ml.Amount,
			&ml.CurrencyCode, &fxRate, &eventType,
			&ml.CreatedAt, &ml.CreatedBy, &ml.LastUpdatedAt, &ml.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan leg row", err)
		}
		applyNullableEntryFields(&me, sourceID, voidReason, reversalID)
		applyNullableLineFields(&ml, fxRate, eventType)
		legs = append(legs, domain.ProcessingLeg{
			Entry: mapping.ToDomainEntry(me),
			Line:  mapping.ToDomainLine(ml),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating leg rows", err)
	}
	return legs, nil
}

// scanEntry scans a single journal entry row, handling nullable columns.
func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	var sourceID, voidReason, reversalID sql.NullString
	err := row.Scan(
		&m.EntryID,
		&m.OwnerID,
		&m.EntryDate,
		&m.Memo,
		&m.Source,
		&sourceID,
		&m.CurrencyCode,
		&m.Status,
		&voidReason,
		&reversalID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.JournalEntry{}, err
	}
	applyNullableEntryFields(&m, sourceID, voidReason, reversalID)
	return m, nil
}

func applyNullableEntryFields(m *models.JournalEntry, sourceID, voidReason, reversalID sql.NullString) {
	if sourceID.Valid {
		m.SourceID = &sourceID.String
	}
	if voidReason.Valid {
		m.VoidReason = &voidReason.String
	}
	if reversalID.Valid {
		m.ReversalEntryID = &reversalID.String
	}
}

func applyNullableLineFields(m *models.JournalLine, fxRate, eventType sql.NullString) {
	if fxRate.Valid {
		if rate, err := decimal.NewFromString(fxRate.String); err == nil {
			m.FxRate = &rate
		}
	}
	if eventType.Valid {
		m.EventType = eventType.String
	}
}

// collectLines drains a line rowset into model lines, closing the rows.
func collectLines(rows pgx.Rows) ([]models.JournalLine, error) {
	defer rows.Close()
	lines := []models.JournalLine{}
	for rows.Next() {
		var m models.JournalLine
		var fxRate sql.NullString
		var eventType sql.NullString
		err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.Direction,
			&m.Amount,
			&m.CurrencyCode,
			&fxRate,
			&eventType,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, err
		}
		applyNullableLineFields(&m, fxRate, eventType)
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
