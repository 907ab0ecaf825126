package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/internal/database"
	"github.com/helixml/parastore/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const notesSchema = `CREATE TABLE notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(255) NOT NULL,
	body TEXT NOT NULL
)`

type note struct {
	ID   int64
	Name string
	Body string
}

type noteEntity struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
	Body string
}

type noteMapper struct{}

func (noteMapper) ToDomain(e noteEntity) note { return note{ID: e.ID, Name: e.Name, Body: e.Body} }

func (noteMapper) ToModel(d note) noteEntity { return noteEntity{ID: d.ID, Name: d.Name, Body: d.Body} }

func newNoteRepository(t *testing.T) (database.Repository[note, noteEntity], database.Database) {
	t.Helper()
	db := testdb.WithSchema(t, notesSchema)
	return database.NewRepositoryForTable[note, noteEntity](db, noteMapper{}, "note", "notes"), db
}

func seedNotes(t *testing.T, repo database.Repository[note, noteEntity], notes ...note) {
	t.Helper()
	ctx := context.Background()
	for _, n := range notes {
		entity := repo.Mapper().ToModel(n)
		require.NoError(t, repo.DB(ctx).Create(&entity).Error)
	}
}

func TestRepository_FindAll(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo,
		note{Name: "alpha", Body: "first"},
		note{Name: "beta", Body: "second"},
	)

	found, err := repo.Find(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRepository_FindWithCondition(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo,
		note{Name: "alpha", Body: "first"},
		note{Name: "beta", Body: "second"},
	)

	found, err := repo.Find(context.Background(), document.WithName("beta"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "second", found[0].Body)
}

func TestRepository_FindOrderLimitOffset(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo,
		note{Name: "a", Body: "1"},
		note{Name: "b", Body: "2"},
		note{Name: "c", Body: "3"},
	)

	found, err := repo.Find(context.Background(),
		document.WithOrderDesc("name"),
		document.WithLimit(1),
		document.WithOffset(1),
	)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].Name)
}

func TestRepository_FindOne(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo, note{Name: "alpha", Body: "first"})

	found, err := repo.FindOne(context.Background(), document.WithName("alpha"))
	require.NoError(t, err)
	assert.Equal(t, "first", found.Body)
}

func TestRepository_FindOneNotFound(t *testing.T) {
	repo, _ := newNoteRepository(t)

	_, err := repo.FindOne(context.Background(), document.WithName("missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestRepository_ExistsAndCount(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo,
		note{Name: "alpha", Body: "first"},
		note{Name: "alpha", Body: "second"},
	)

	exists, err := repo.Exists(context.Background(), document.WithName("alpha"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), document.WithName("missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.Count(context.Background(), document.WithName("alpha"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_DeleteByReportsRowsAffected(t *testing.T) {
	repo, _ := newNoteRepository(t)
	seedNotes(t, repo,
		note{Name: "alpha", Body: "first"},
		note{Name: "beta", Body: "second"},
	)

	removed, err := repo.DeleteBy(context.Background(), document.WithConditionIn("name", []string{"alpha", "missing"}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	repo, db := newNoteRepository(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		entity := noteEntity{Name: "alpha", Body: "first"}
		if err := tx.Table("notes").Create(&entity).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	repo, db := newNoteRepository(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		entity := noteEntity{Name: "alpha", Body: "first"}
		return tx.Table("notes").Create(&entity).Error
	})
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
