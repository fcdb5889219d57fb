package postgres

import (
	"context"
	"errors"

	"userhub/internal/domain/user"
	"userhub/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

const userColumns = `id, name, password_hash, sex, birth_date, department, telephone, email, role, create_time`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.PasswordHash,
		&u.Sex,
		&u.BirthDate,
		&u.Department,
		&u.Telephone,
		&u.Email,
		&u.Role,
		&u.CreateTime,
	)

	return u, err
}

// Create inserts the user and returns it with the store-assigned id.
// The users.name unique constraint is the real duplicate guard; callers
// pre-checking by name only get a nicer error faster.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	op := "users.create"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (name, password_hash, sex, birth_date, department, telephone, email, role, create_time)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 RETURNING id`,
			u.Name, u.PasswordHash, u.Sex, u.BirthDate, u.Department, u.Telephone, u.Email, u.Role, u.CreateTime,
		).Scan(&u.ID)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrDuplicateName
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByName(ctx context.Context, name string) (user.User, error) {
	var u user.User
	var err error

	op := "users.get_by_name"

	err = r.observe(op, func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE name = $1`, name))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	var err error

	op := "users.get_by_id"

	err = r.observe(op, func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// UpdateByID overwrites the full record keyed by u.ID.
func (r *UsersRepo) UpdateByID(ctx context.Context, u user.User) error {
	var tag pgconn.CommandTag
	var err error

	op := "users.update_by_id"

	err = r.observe(op, func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users
			 SET name = $2,
			     password_hash = $3,
			     sex = $4,
			     birth_date = $5,
			     department = $6,
			     telephone = $7,
			     email = $8,
			     role = $9
			 WHERE id = $1`,
			u.ID, u.Name, u.PasswordHash, u.Sex, u.BirthDate, u.Department, u.Telephone, u.Email, u.Role,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrDuplicateName
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (r *UsersRepo) DeleteByID(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag
	var err error

	op := "users.delete_by_id"

	err = r.observe(op, func() error {
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

// ListPage returns one page of users ordered by id, plus the total row count.
// pageNum is 1-based; callers clamp non-positive inputs before getting here.
func (r *UsersRepo) ListPage(ctx context.Context, pageNum, pageSize int) ([]user.User, int64, error) {
	offset := (pageNum - 1) * pageSize

	var rows pgx.Rows
	var err error

	op := "users.list_page"

	err = r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+userColumns+`, COUNT(*) OVER() AS total
			 FROM users
			 ORDER BY id ASC
			 LIMIT $1 OFFSET $2`,
			pageSize, offset,
		)
		return qerr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	out := make([]user.User, 0, pageSize)
	var total int64

	for rows.Next() {
		var u user.User
		var t int64

		err = rows.Scan(
			&u.ID, &u.Name, &u.PasswordHash, &u.Sex, &u.BirthDate,
			&u.Department, &u.Telephone, &u.Email, &u.Role, &u.CreateTime,
			&t,
		)

		if err != nil {
			return nil, 0, err
		}

		total = t
		out = append(out, u)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	// an empty page past the end still needs the real total
	if len(out) == 0 {
		err = r.observe("users.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		})

		if err != nil {
			return nil, 0, err
		}
	}

	return out, total, nil
}
