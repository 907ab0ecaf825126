package index

import (
	"context"
	"fmt"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// newCollectionRepository creates a Repository for CollectionEntity. The
// collections table is shared by every collection in the database.
func newCollectionRepository(db database.Database) database.Repository[CollectionEntity, CollectionEntity] {
	return database.NewRepositoryForTable[CollectionEntity, CollectionEntity](
		db,
		identityMapper[CollectionEntity]{},
		"collection",
		collectionsTable,
	)
}

// ensureCollectionRow inserts the collection config row if it does not
// exist yet. Dimension starts at zero and is recorded on first upsert.
func ensureCollectionRow(ctx context.Context, repo database.Repository[CollectionEntity, CollectionEntity], collection string) error {
	entity := CollectionEntity{
		Name:   collection,
		Metric: CosineMetric,
	}
	return repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&entity).Error
}

// collectionDimension returns the recorded embedding dimension for the
// collection, or zero when nothing has been inserted yet.
func collectionDimension(ctx context.Context, repo database.Repository[CollectionEntity, CollectionEntity], collection string) (int, error) {
	entity, err := repo.FindOne(ctx, document.WithName(collection))
	if err != nil {
		return 0, fmt.Errorf("load collection config: %w", err)
	}
	return entity.Dimension, nil
}

// recordDimension stores the collection dimension on first insert. The
// guard on dimension = 0 makes concurrent first inserts idempotent.
func recordDimension(tx *gorm.DB, collection string, dimension int) error {
	return tx.Table(collectionsTable).
		Where("name = ? AND dimension = 0", collection).
		Update("dimension", dimension).Error
}

// batchDimension validates that every entry in a batch shares one
// embedding dimension consistent with the recorded collection dimension.
// It returns the dimension the batch settles on.
func batchDimension(entries []document.Entry, recorded int) (int, error) {
	expected := recorded
	for _, entry := range entries {
		d := entry.Dimension()
		if d == 0 {
			return 0, fmt.Errorf("%w: entry %q has an empty embedding", document.ErrDimensionMismatch, entry.ID())
		}
		if expected == 0 {
			expected = d
			continue
		}
		if d != expected {
			return 0, fmt.Errorf("%w: entry %q has %d dimensions, expected %d",
				document.ErrDimensionMismatch, entry.ID(), d, expected)
		}
	}
	return expected, nil
}
