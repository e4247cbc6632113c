package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type itemRow struct {
	ID        int            `db:"id"`
	Elo       string         `db:"elo"`
	Skins     string         `db:"skins"`
	Price     string         `db:"price"`
	Email     string         `db:"email"`
	Password  string         `db:"password"`
	Obs       string         `db:"obs"`
	ImageMime sql.NullString `db:"image_mime"`
	ImageData sql.NullString `db:"image_data"`
	AddedAt   string         `db:"added_at"`
}

// SQLStore is the Postgres-backed catalog, selected by store.driver=postgres.
// It keeps the same whole-document Save semantics as the file backend so the
// wizards do not care which one they run on.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) List(ctx context.Context) ([]Item, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, elo, skins, price, email, password, obs, image_mime, image_data, added_at
		   FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: select items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem())
	}
	return items, nil
}

func (s *SQLStore) Save(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("catalog: clear items: %w", err)
	}
	for _, it := range items {
		row := fromItem(it)
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO items (id, elo, skins, price, email, password, obs, image_mime, image_data, added_at)
			 VALUES (:id, :elo, :skins, :price, :email, :password, :obs, :image_mime, :image_data, :added_at)`,
			row)
		if err != nil {
			return fmt.Errorf("catalog: insert item %d: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	return nil
}

func (s *SQLStore) FindByID(ctx context.Context, id int) (Item, error) {
	var row itemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, elo, skins, price, email, password, obs, image_mime, image_data, added_at
		   FROM items WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("catalog: select item %d: %w", id, err)
	}
	return row.toItem(), nil
}

func (r itemRow) toItem() Item {
	it := Item{
		ID:       r.ID,
		Elo:      r.Elo,
		Skins:    r.Skins,
		Price:    r.Price,
		Email:    r.Email,
		Password: r.Password,
		Obs:      r.Obs,
		AddedAt:  r.AddedAt,
	}
	if r.ImageMime.Valid && r.ImageData.Valid {
		it.Image = &Image{Mimetype: r.ImageMime.String, Data: r.ImageData.String}
	}
	return it
}

func fromItem(it Item) itemRow {
	row := itemRow{
		ID:       it.ID,
		Elo:      it.Elo,
		Skins:    it.Skins,
		Price:    it.Price,
		Email:    it.Email,
		Password: it.Password,
		Obs:      it.Obs,
		AddedAt:  it.AddedAt,
	}
	if it.Image != nil {
		row.ImageMime = sql.NullString{String: it.Image.Mimetype, Valid: true}
		row.ImageData = sql.NullString{String: it.Image.Data, Valid: true}
	}
	return row
}
