package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"morapack/internal/integrations"
	"morapack/internal/model"
	"morapack/internal/opt"
)

type Postgres struct {
	db  *sql.DB
	log *zap.Logger
}

// NewPostgres opens the pool and pings it with exponential backoff until
// ctx expires or the retry budget runs out.
func NewPostgres(ctx context.Context, dsn string, log *zap.Logger) (*Postgres, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	p := &Postgres{db: db, log: log}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 6), ctx)
	err = backoff.RetryNotify(func() error { return p.Ping(ctx) }, policy, func(err error, next time.Duration) {
		log.Warn("postgres not ready", zap.Error(err), zap.Duration("retry_in", next))
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return p, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS airports (
		id          integer PRIMARY KEY,
		iata        text NOT NULL UNIQUE,
		city        text NOT NULL DEFAULT '',
		country     text NOT NULL DEFAULT '',
		city_code   text NOT NULL DEFAULT '',
		continent   text NOT NULL,
		lat         double precision NOT NULL DEFAULT 0,
		lng         double precision NOT NULL DEFAULT 0,
		gmt_offset  integer NOT NULL,
		capacity    integer NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		id              integer PRIMARY KEY,
		origin          text NOT NULL REFERENCES airports(iata),
		destination     text NOT NULL REFERENCES airports(iata),
		departure_local integer NOT NULL,
		arrival_local   integer NOT NULL,
		capacity        integer NOT NULL,
		frequency       integer NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               integer PRIMARY KEY,
		name             text NOT NULL DEFAULT '',
		origin           text NOT NULL REFERENCES airports(iata),
		destination      text NOT NULL REFERENCES airports(iata),
		created_at       timestamptz NOT NULL,
		deadline         timestamptz,
		priority         double precision NOT NULL DEFAULT 1,
		customer_id      text NOT NULL DEFAULT '',
		quantity         integer NOT NULL,
		first_product_id integer NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at)`,
	`CREATE TABLE IF NOT EXISTS run_reports (
		run_id     uuid PRIMARY KEY,
		dataset    text NOT NULL,
		created_at timestamptz NOT NULL,
		assigned   integer NOT NULL,
		unassigned integer NOT NULL,
		weight     double precision NOT NULL,
		body       jsonb NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_reports_dataset_idx ON run_reports (dataset, created_at DESC)`,
}

// Migrate creates the tables the planner reads and writes.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) LoadAirports(ctx context.Context) ([]*model.Airport, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, iata, city, country, city_code, continent, lat, lng, gmt_offset, capacity FROM airports ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Airport
	for rows.Next() {
		a := &model.Airport{City: &model.City{}}
		var continent string
		if err := rows.Scan(&a.ID, &a.IATA, &a.City.Name, &a.City.Country, &a.City.Code, &continent, &a.Lat, &a.Lng, &a.GMTOffset, &a.Warehouse.Capacity); err != nil {
			return nil, err
		}
		a.City.ID = a.ID
		a.City.Continent = parseContinent(continent)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) LoadFlights(ctx context.Context, airports []*model.Airport) ([]*model.Flight, error) {
	byCode := integrations.ByIATA(airports)
	rows, err := p.db.QueryContext(ctx, `SELECT id, origin, destination, departure_local, arrival_local, capacity, frequency FROM flights ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Flight
	for rows.Next() {
		var id, dep, arr, capacity, freq int
		var orig, dest string
		if err := rows.Scan(&id, &orig, &dest, &dep, &arr, &capacity, &freq); err != nil {
			return nil, err
		}
		o, d := byCode[orig], byCode[dest]
		if o == nil || d == nil {
			p.log.Warn("flight references unknown airport", zap.Int("flight", id), zap.String("origin", orig), zap.String("destination", dest))
			continue
		}
		f := model.NewFlight(id, o, d, dep, arr, capacity)
		f.Frequency = freq
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *Postgres) LoadOrders(ctx context.Context, airports []*model.Airport, window integrations.Window) ([]*model.Order, error) {
	byCode := integrations.ByIATA(airports)
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, origin, destination, created_at, deadline, priority, customer_id, quantity, first_product_id
		FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at, id`, nullTime(window.From), nullTime(window.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Order
	for rows.Next() {
		var (
			id, qty, first int
			name, orig     string
			dest, customer string
			created        time.Time
			deadline       sql.NullTime
			priority       float64
		)
		if err := rows.Scan(&id, &name, &orig, &dest, &created, &deadline, &priority, &customer, &qty, &first); err != nil {
			return nil, err
		}
		o, d := byCode[orig], byCode[dest]
		if o == nil || d == nil {
			p.log.Warn("order references unknown airport", zap.Int("order", id), zap.String("origin", orig), zap.String("destination", dest))
			continue
		}
		ord := model.NewOrder(id, o, d, created.UTC(), deadline.Time.UTC(), qty, first)
		if !deadline.Valid {
			ord.Deadline = time.Time{}
		}
		ord.Name = name
		ord.Priority = priority
		ord.CustomerID = customer
		out = append(out, ord)
	}
	return out, rows.Err()
}

// ImportDataset upserts reference data in one transaction.
func (p *Postgres) ImportDataset(ctx context.Context, ds *integrations.Dataset) error {
	if ds == nil {
		return errors.New("import: nil dataset")
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range ds.Airports {
		var city, country, code string
		continent := model.UnknownContinent
		if a.City != nil {
			city, country, code, continent = a.City.Name, a.City.Country, a.City.Code, a.City.Continent
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO airports (id, iata, city, country, city_code, continent, lat, lng, gmt_offset, capacity)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET iata=EXCLUDED.iata, city=EXCLUDED.city, country=EXCLUDED.country, city_code=EXCLUDED.city_code,
				continent=EXCLUDED.continent, lat=EXCLUDED.lat, lng=EXCLUDED.lng, gmt_offset=EXCLUDED.gmt_offset, capacity=EXCLUDED.capacity`,
			a.ID, a.IATA, city, country, code, continent.String(), a.Lat, a.Lng, a.GMTOffset, a.Warehouse.Capacity)
		if err != nil {
			return fmt.Errorf("airport %s: %w", a.IATA, err)
		}
	}
	for _, f := range ds.Flights {
		_, err = tx.ExecContext(ctx, `INSERT INTO flights (id, origin, destination, departure_local, arrival_local, capacity, frequency)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET origin=EXCLUDED.origin, destination=EXCLUDED.destination, departure_local=EXCLUDED.departure_local,
				arrival_local=EXCLUDED.arrival_local, capacity=EXCLUDED.capacity, frequency=EXCLUDED.frequency`,
			f.ID, f.Origin.IATA, f.Destination.IATA, f.DepartureLocal, f.ArrivalLocal, f.Capacity, max(f.Frequency, 1))
		if err != nil {
			return fmt.Errorf("flight %d: %w", f.ID, err)
		}
	}
	for _, o := range ds.Orders {
		first := 0
		if len(o.Products) > 0 {
			first = o.Products[0].ID
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO orders (id, name, origin, destination, created_at, deadline, priority, customer_id, quantity, first_product_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, origin=EXCLUDED.origin, destination=EXCLUDED.destination, created_at=EXCLUDED.created_at,
				deadline=EXCLUDED.deadline, priority=EXCLUDED.priority, customer_id=EXCLUDED.customer_id, quantity=EXCLUDED.quantity,
				first_product_id=EXCLUDED.first_product_id`,
			o.ID, o.Name, o.Origin.IATA, o.Destination.IATA, o.Created, nullTime(o.Deadline), o.Priority, o.CustomerID, o.Quantity(), first)
		if err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) SaveReport(ctx context.Context, rep *opt.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO run_reports (run_id, dataset, created_at, assigned, unassigned, weight, body)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (run_id) DO UPDATE SET body=EXCLUDED.body, assigned=EXCLUDED.assigned, unassigned=EXCLUDED.unassigned, weight=EXCLUDED.weight`,
		rep.RunID, rep.Dataset, rep.CreatedAt, rep.Assigned, rep.Unassigned, rep.Breakdown.Weight, body)
	return err
}

func (p *Postgres) GetReport(ctx context.Context, runID string) (*opt.Report, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM run_reports WHERE run_id::text=$1`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rep opt.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &rep, nil
}

func (p *Postgres) ListReports(ctx context.Context, dataset string, limit int) ([]ReportSummary, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT run_id::text, dataset, created_at, assigned, unassigned, weight
		FROM run_reports WHERE ($1 = '' OR dataset = $1) ORDER BY created_at DESC, run_id LIMIT $2`, dataset, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ReportSummary{}
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.RunID, &s.Dataset, &s.CreatedAt, &s.Assigned, &s.Unassigned, &s.Weight); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func parseContinent(s string) model.Continent {
	c, err := model.ParseContinent(s)
	if err != nil {
		return model.UnknownContinent
	}
	return c
}
