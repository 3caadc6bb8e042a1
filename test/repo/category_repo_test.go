package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
	"github.com/mallikj2/genai-file-search/internal/repo"
	"github.com/mallikj2/genai-file-search/test/testutil"
)

func TestCategoryRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	categories := repo.NewCategoryRepo(db)
	ctx := context.Background()
	now := timeutil.NowUnix()
	id := testutil.UniqueID("cat")
	name := testutil.UniqueID("contracts")

	category := &model.Category{ID: id, Name: name, Description: "legal contracts", Ctime: now, Mtime: now}
	require.NoError(t, categories.Create(ctx, category))
	defer categories.Delete(ctx, id)

	fetched, err := categories.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, name, fetched.Name)
	require.Equal(t, "legal contracts", fetched.Description)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	found := false
	for _, item := range list {
		if item.ID == id {
			found = true
		}
	}
	require.True(t, found, "created category must show up in the list")

	require.NoError(t, categories.Delete(ctx, id))
	_, err = categories.GetByID(ctx, id)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, categories.Delete(ctx, id), appErr.ErrNotFound)
}

func TestCategoryRepoDuplicateName(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	categories := repo.NewCategoryRepo(db)
	ctx := context.Background()
	now := timeutil.NowUnix()
	name := testutil.UniqueID("invoices")

	first := &model.Category{ID: testutil.UniqueID("cat"), Name: name, Ctime: now, Mtime: now}
	require.NoError(t, categories.Create(ctx, first))
	defer categories.Delete(ctx, first.ID)

	dup := &model.Category{ID: testutil.UniqueID("cat"), Name: name, Ctime: now, Mtime: now}
	require.ErrorIs(t, categories.Create(ctx, dup), appErr.ErrConflict)
}
