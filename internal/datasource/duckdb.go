package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// DuckDBProvider is a HistoricalData implementation backed by an in-memory
// DuckDB instance. CSV tables are loaded with read_csv_auto and queried
// through squirrel-built SQL.
type DuckDBProvider struct {
	db         *sql.DB
	logger     *logger.Logger
	sq         squirrel.StatementBuilderType
	underlying string
	hasChain   bool
}

// NewDuckDBProvider creates a provider for the given underlying index name
// (e.g. "NIFTY"). The underlying name drives canonical symbol synthesis and
// parsing.
func NewDuckDBProvider(underlying string, logger *logger.Logger) (*DuckDBProvider, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBProvider{
		db:         db,
		logger:     logger,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		underlying: underlying,
		hasChain:   false,
	}, nil
}

// Initialize implements HistoricalData.
func (d *DuckDBProvider) Initialize(indexPath string, cePath string, pePath string) error {
	d.logger.Debug("Initializing historical data provider",
		zap.String("index", indexPath),
		zap.String("ce", cePath),
		zap.String("pe", pePath),
	)

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE index_bars AS
		SELECT
			CAST(date AS DATE) AS date,
			TRY_CAST(REPLACE(CAST(open AS VARCHAR), ',', '') AS DOUBLE) AS open,
			TRY_CAST(REPLACE(CAST(high AS VARCHAR), ',', '') AS DOUBLE) AS high,
			TRY_CAST(REPLACE(CAST(low AS VARCHAR), ',', '') AS DOUBLE) AS low,
			TRY_CAST(REPLACE(CAST(close AS VARCHAR), ',', '') AS DOUBLE) AS close
		FROM read_csv_auto('%s', normalize_names=true)
		ORDER BY date;
	`, escapePath(indexPath))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load index table", err)
	}

	if cePath == "" || pePath == "" {
		d.hasChain = false

		return nil
	}

	if err := d.loadChainTable("ce_chain", cePath); err != nil {
		return err
	}

	if err := d.loadChainTable("pe_chain", pePath); err != nil {
		return err
	}

	d.hasChain = true

	// Supplement the index series with synthetic bars for chain trading
	// dates newer than the latest index date, keyed on the chain's observed
	// underlying value. Keeps the index from going stale relative to richer
	// option data.
	supplement := `
		INSERT INTO index_bars
		SELECT date, uv AS open, uv AS high, uv AS low, uv AS close
		FROM (
			SELECT date, MIN(underlying_value) AS uv
			FROM ce_chain
			WHERE date > (SELECT MAX(date) FROM index_bars)
			  AND underlying_value IS NOT NULL
			GROUP BY date
		)
		ORDER BY date;
	`
	if _, err := d.db.Exec(supplement); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to supplement index table", err)
	}

	return nil
}

func (d *DuckDBProvider) loadChainTable(table string, path string) error {
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT
			CAST(date AS DATE) AS date,
			CAST(expiry AS DATE) AS expiry,
			TRY_CAST(REPLACE(CAST(strike_price AS VARCHAR), ',', '') AS DOUBLE) AS strike,
			TRIM(CAST(option_type AS VARCHAR)) AS option_type,
			TRY_CAST(REPLACE(CAST(ltp AS VARCHAR), ',', '') AS DOUBLE) AS ltp,
			TRY_CAST(REPLACE(CAST(close AS VARCHAR), ',', '') AS DOUBLE) AS close,
			TRY_CAST(REPLACE(CAST(underlying_value AS VARCHAR), ',', '') AS DOUBLE) AS underlying_value
		FROM read_csv_auto('%s', normalize_names=true)
		ORDER BY date;
	`, table, escapePath(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load chain table %s", table)
	}

	return nil
}

// GetIndexPrice implements HistoricalData. Exact calendar-date match on
// close, forward-filled from the nearest earlier date.
func (d *DuckDBProvider) GetIndexPrice(t time.Time) optional.Option[float64] {
	var price float64

	err := d.sq.
		Select("close").
		From("index_bars").
		Where(squirrel.LtOrEq{"date": calendarDate(t)}).
		OrderBy("date DESC").
		Limit(1).
		RunWith(d.db).
		QueryRow().
		Scan(&price)
	if err != nil {
		if err != sql.ErrNoRows {
			d.logger.Warn("index price query failed", zap.Error(err))
		}

		return optional.None[float64]()
	}

	return optional.Some(price)
}

// GetOptionChain implements HistoricalData.
func (d *DuckDBProvider) GetOptionChain(t time.Time) optional.Option[types.OptionChainSnapshot] {
	if !d.hasChain {
		return optional.None[types.OptionChainSnapshot]()
	}

	asof := calendarDate(t)

	chainDate, ok := d.resolveChainDate(asof)
	if !ok {
		d.logger.Debug("no chain data at or before date", zap.Time("asof", asof))

		return optional.None[types.OptionChainSnapshot]()
	}

	expiry, ok := d.nearMonthExpiry(chainDate)
	if !ok {
		return optional.None[types.OptionChainSnapshot]()
	}

	calls, err := d.chainRows("ce_chain", chainDate, expiry)
	if err != nil {
		d.logger.Warn("failed to read CE chain rows", zap.Error(err))

		return optional.None[types.OptionChainSnapshot]()
	}

	puts, err := d.chainRows("pe_chain", chainDate, expiry)
	if err != nil {
		d.logger.Warn("failed to read PE chain rows", zap.Error(err))

		return optional.None[types.OptionChainSnapshot]()
	}

	return optional.Some(types.OptionChainSnapshot{
		Date:   chainDate,
		Expiry: expiry,
		Calls:  calls,
		Puts:   puts,
	})
}

// resolveChainDate returns the exact date when either table has rows for it,
// otherwise the most recent earlier date with data in either table.
func (d *DuckDBProvider) resolveChainDate(asof time.Time) (time.Time, bool) {
	var count int

	err := d.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM ce_chain WHERE date = ?) +
		       (SELECT COUNT(*) FROM pe_chain WHERE date = ?)
	`, asof, asof).Scan(&count)
	if err != nil {
		d.logger.Warn("chain date count query failed", zap.Error(err))

		return time.Time{}, false
	}

	if count > 0 {
		return asof, true
	}

	var fallback sql.NullTime

	err = d.db.QueryRow(`
		SELECT MAX(date) FROM (
			SELECT date FROM ce_chain WHERE date <= ?
			UNION ALL
			SELECT date FROM pe_chain WHERE date <= ?
		)
	`, asof, asof).Scan(&fallback)
	if err != nil || !fallback.Valid {
		return time.Time{}, false
	}

	d.logger.Debug("using fallback chain date",
		zap.Time("asof", asof),
		zap.Time("fallback", fallback.Time),
	)

	return fallback.Time, true
}

// nearMonthExpiry returns the minimum expiry quoted in the CE table on the
// chain date. The CE table alone drives contract selection; PE rows are then
// filtered to the same expiry.
func (d *DuckDBProvider) nearMonthExpiry(chainDate time.Time) (time.Time, bool) {
	var expiry sql.NullTime

	err := d.db.QueryRow(
		`SELECT MIN(expiry) FROM ce_chain WHERE date = ?`, chainDate,
	).Scan(&expiry)
	if err != nil || !expiry.Valid {
		return time.Time{}, false
	}

	return expiry.Time, true
}

func (d *DuckDBProvider) chainRows(table string, chainDate time.Time, expiry time.Time) ([]types.OptionRow, error) {
	rows, err := d.sq.
		Select("date", "expiry", "strike", "option_type", "ltp", "close", "underlying_value").
		From(table).
		Where(squirrel.Eq{"date": chainDate, "expiry": expiry}).
		OrderBy("strike").
		RunWith(d.db).
		Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query %s", table)
	}
	defer rows.Close()

	var result []types.OptionRow

	for rows.Next() {
		var (
			row             types.OptionRow
			ltp, closePx    sql.NullFloat64
			underlyingValue sql.NullFloat64
		)

		if err := rows.Scan(&row.Date, &row.Expiry, &row.Strike, &row.OptionType, &ltp, &closePx, &underlyingValue); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to scan %s row", table)
		}

		row.LTP = ltp.Float64
		row.Close = closePx.Float64
		row.UnderlyingValue = underlyingValue.Float64
		row.Symbol = types.OptionSymbol(d.underlying, row.Expiry, row.Strike, row.OptionType)
		result = append(result, row)
	}

	return result, rows.Err()
}

// GetOptionPrice implements HistoricalData. Exact (date, strike) match, else
// nearest prior date; LTP preferred, close when LTP is blank or zero; 0 when
// nothing is found.
func (d *DuckDBProvider) GetOptionPrice(symbol string, t time.Time) float64 {
	ref, err := ParseOptionSymbol(d.underlying, symbol)
	if err != nil {
		d.logger.Warn("unparseable option symbol", zap.String("symbol", symbol), zap.Error(err))

		return 0
	}

	if !d.hasChain {
		return 0
	}

	table := "ce_chain"
	if ref.OptionType == types.OptionTypePut {
		table = "pe_chain"
	}

	asof := calendarDate(t)

	price, found := d.optionPriceAt(table, asof, ref.Strike)
	if found {
		return price
	}

	var fallback sql.NullTime

	query := fmt.Sprintf(`SELECT MAX(date) FROM %s WHERE date <= ?`, table)
	if err := d.db.QueryRow(query, asof).Scan(&fallback); err != nil || !fallback.Valid {
		d.logger.Debug("no price data for symbol", zap.String("symbol", symbol), zap.Time("asof", asof))

		return 0
	}

	price, found = d.optionPriceAt(table, fallback.Time, ref.Strike)
	if !found {
		d.logger.Debug("no price data for symbol", zap.String("symbol", symbol), zap.Time("asof", asof))

		return 0
	}

	return price
}

func (d *DuckDBProvider) optionPriceAt(table string, date time.Time, strike float64) (float64, bool) {
	var ltp, closePx sql.NullFloat64

	err := d.sq.
		Select("ltp", "close").
		From(table).
		Where(squirrel.Eq{"date": date, "strike": strike}).
		Limit(1).
		RunWith(d.db).
		QueryRow().
		Scan(&ltp, &closePx)
	if err != nil {
		return 0, false
	}

	if ltp.Valid && ltp.Float64 != 0 {
		return ltp.Float64, true
	}

	return closePx.Float64, true
}

// ReadAll implements HistoricalData.
func (d *DuckDBProvider) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.IndexBar, error) bool) {
	return func(yield func(types.IndexBar, error) bool) {
		query := d.sq.
			Select("date", "open", "high", "low", "close").
			From("index_bars").
			OrderBy("date")

		if start.IsSome() {
			query = query.Where(squirrel.GtOrEq{"date": calendarDate(start.Unwrap())})
		}

		if end.IsSome() {
			query = query.Where(squirrel.LtOrEq{"date": calendarDate(end.Unwrap())})
		}

		rows, err := query.RunWith(d.db).Query()
		if err != nil {
			yield(types.IndexBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read index bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				bar                      types.IndexBar
				open, high, low, closePx sql.NullFloat64
			)

			if err := rows.Scan(&bar.Date, &open, &high, &low, &closePx); err != nil {
				yield(types.IndexBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan index bar", err))

				return
			}

			bar.Open = open.Float64
			bar.High = high.Float64
			bar.Low = low.Float64
			bar.Close = closePx.Float64

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.IndexBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate index bars", err))
		}
	}
}

// Count implements HistoricalData.
func (d *DuckDBProvider) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := d.sq.Select("COUNT(*)").From("index_bars")

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"date": calendarDate(start.Unwrap())})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"date": calendarDate(end.Unwrap())})
	}

	var count int
	if err := query.RunWith(d.db).QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count index bars", err)
	}

	return count, nil
}

// Underlying returns the underlying index name the provider was built for.
func (d *DuckDBProvider) Underlying() string {
	return d.underlying
}

// Close implements HistoricalData.
func (d *DuckDBProvider) Close() error {
	return d.db.Close()
}

// calendarDate truncates an instant to its calendar date in UTC.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// escapePath escapes single quotes for embedding a path in a SQL literal.
func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
