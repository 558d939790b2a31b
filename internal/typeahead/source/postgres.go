package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/88clipon/saleor/internal/typeahead/index"
	apperrors "github.com/88clipon/saleor/pkg/errors"
	"github.com/88clipon/saleor/pkg/logger"
	"github.com/88clipon/saleor/pkg/postgres"
)

const productQuery = `
SELECT p.id, p.name, p.slug, COALESCE(t.name, '')
FROM product_product p
LEFT JOIN product_producttype t ON t.id = p.product_type_id
ORDER BY p.id`

const variantQuery = `
SELECT v.product_id, COALESCE(v.name, ''), COALESCE(v.sku, '')
FROM product_productvariant v
ORDER BY v.product_id, v.id`

// Postgres reads searchable records from the catalog database: product names
// and slugs, plus the names and SKUs of their variants.
type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{
		client: client,
		logger: logger.WithComponent("catalog-source"),
	}
}

// FetchAll returns one RawRecord per product, with variant names and SKUs
// folded into it. Any database failure is reported as a source-unreachable
// error so the cache manager can apply its degrade policy.
func (p *Postgres) FetchAll(ctx context.Context) ([]index.RawRecord, error) {
	records, byID, err := p.fetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnreachable, err)
	}
	if err := p.fetchVariants(ctx, byID); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnreachable, err)
	}

	out := make([]index.RawRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec)
	}
	p.logger.Debug("catalog fetched", "products", len(out))
	return out, nil
}

func (p *Postgres) fetchProducts(ctx context.Context) ([]*index.RawRecord, map[string]*index.RawRecord, error) {
	rows, err := p.client.DB.QueryContext(ctx, productQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var records []*index.RawRecord
	byID := make(map[string]*index.RawRecord)
	for rows.Next() {
		var (
			id          string
			name        string
			slug        sql.NullString
			productType string
		)
		if err := rows.Scan(&id, &name, &slug, &productType); err != nil {
			return nil, nil, fmt.Errorf("scanning product row: %w", err)
		}
		rec := &index.RawRecord{
			SourceID:    id,
			PrimaryName: name,
			AliasSlug:   slug.String,
			Metadata:    map[string]string{"slug": slug.String},
		}
		if productType != "" {
			rec.Metadata["product_type"] = productType
		}
		records = append(records, rec)
		byID[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return records, byID, nil
}

func (p *Postgres) fetchVariants(ctx context.Context, byID map[string]*index.RawRecord) error {
	rows, err := p.client.DB.QueryContext(ctx, variantQuery)
	if err != nil {
		return fmt.Errorf("querying variants: %w", err)
	}
	defer rows.Close()

	orphans := 0
	for rows.Next() {
		var productID, name, sku string
		if err := rows.Scan(&productID, &name, &sku); err != nil {
			return fmt.Errorf("scanning variant row: %w", err)
		}
		rec, ok := byID[productID]
		if !ok {
			orphans++
			continue
		}
		if name != "" {
			rec.VariantNames = append(rec.VariantNames, name)
		}
		if sku != "" {
			rec.IdentifierCodes = append(rec.IdentifierCodes, sku)
		}
	}
	if orphans > 0 {
		p.logger.Warn("variants without a known product", "count", orphans)
	}
	return rows.Err()
}
