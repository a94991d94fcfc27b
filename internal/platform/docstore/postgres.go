package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents as jsonb rows keyed by (collection, id).
type Postgres struct {
	pool *pgxpool.Pool
	hub  *hub
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	p := &Postgres{pool: pool}
	p.hub = newHub(p.loadCollection)
	return p
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
    CREATE TABLE IF NOT EXISTS documents (
      collection TEXT NOT NULL,
      id         TEXT NOT NULL,
      data       JSONB NOT NULL,
      PRIMARY KEY (collection, id)
    )
  `)
	return err
}

func (p *Postgres) GetOne(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `
    SELECT data
    FROM documents
    WHERE collection = $1 AND id = $2
  `, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) CreateOrReplace(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
    INSERT INTO documents (collection, id, data)
    VALUES ($1, $2, $3)
    ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
  `, collection, id, raw)
	if err != nil {
		return err
	}
	p.hub.notify(collection)
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `
    UPDATE documents
    SET data = data || $3::jsonb
    WHERE collection = $1 AND id = $2
  `, collection, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.hub.notify(collection)
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.pool.Exec(ctx, `
    DELETE FROM documents
    WHERE collection = $1 AND id = $2
  `, collection, id)
	if err != nil {
		return err
	}
	p.hub.notify(collection)
	return nil
}

func (p *Postgres) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := p.CreateOrReplace(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Subscribe(q Query) *Subscription {
	return p.hub.subscribe(q)
}

func (p *Postgres) Rebroadcast() {
	p.hub.rebroadcast()
}

func (p *Postgres) loadCollection(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.pool.Query(ctx, `
    SELECT id, data
    FROM documents
    WHERE collection = $1
  `, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data := make(map[string]any)
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}
