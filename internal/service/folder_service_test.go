package service

import (
	"context"
	"testing"

	"teamvault/internal/domain"
	"teamvault/internal/store"
	"teamvault/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func testPrincipal() domain.Principal {
	return domain.Principal{
		UserID:         bson.NewObjectID(),
		OrganizationID: bson.NewObjectID(),
		Email:          "alice@example.com",
	}
}

func newTestStores() (*memory.FolderStore, *memory.ItemStore) {
	return memory.NewFolderStore(), memory.NewItemStore()
}

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	folders, items := newTestStores()
	svc := NewFolderService(folders, items)
	p := testPrincipal()

	root, err := svc.CreateFolder(ctx, p, "Contracts", "")
	require.NoError(t, err)
	assert.False(t, root.ID.IsZero())
	assert.Equal(t, "Contracts", root.Name)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, p.UserID, root.OwnerID)
	assert.Equal(t, p.OrganizationID, root.OrganizationID)

	child, err := svc.CreateFolder(ctx, p, "2026", root.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, root.ID.Hex(), child.ParentID)

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := svc.CreateFolder(ctx, p, "", "")
		assert.Error(t, err)
	})

	t.Run("unknown parent rejected", func(t *testing.T) {
		_, err := svc.CreateFolder(ctx, p, "orphan", bson.NewObjectID().Hex())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("malformed parent rejected", func(t *testing.T) {
		_, err := svc.CreateFolder(ctx, p, "orphan", "not-an-id")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate names allowed", func(t *testing.T) {
		_, err := svc.CreateFolder(ctx, p, "Contracts", "")
		assert.NoError(t, err)
	})
}

func TestListFoldersDirectChildrenOnly(t *testing.T) {
	ctx := context.Background()
	folders, items := newTestStores()
	svc := NewFolderService(folders, items)
	p := testPrincipal()

	top, err := svc.CreateFolder(ctx, p, "top", "")
	require.NoError(t, err)
	mid, err := svc.CreateFolder(ctx, p, "mid", top.ID.Hex())
	require.NoError(t, err)
	_, err = svc.CreateFolder(ctx, p, "deep", mid.ID.Hex())
	require.NoError(t, err)

	rootList, err := svc.ListFolders(ctx, p, "", "alp_asc")
	require.NoError(t, err)
	require.Len(t, rootList, 1)
	assert.Equal(t, "top", rootList[0].Name)

	topList, err := svc.ListFolders(ctx, p, top.ID.Hex(), "alp_asc")
	require.NoError(t, err)
	require.Len(t, topList, 1)
	assert.Equal(t, "mid", topList[0].Name, "grandchildren must not appear")
}

func TestListFoldersOrganizationScoped(t *testing.T) {
	ctx := context.Background()
	folders, items := newTestStores()
	svc := NewFolderService(folders, items)
	p := testPrincipal()
	other := testPrincipal() // different organization

	_, err := svc.CreateFolder(ctx, p, "ours", "")
	require.NoError(t, err)

	list, err := svc.ListFolders(ctx, other, "", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()
	folders, items := newTestStores()
	folderSvc := NewFolderService(folders, items)
	vaultSvc := NewVaultService(items, folders, newTestBlobStore(), nil, "master", 0, zap.NewNop())
	p := testPrincipal()

	t.Run("empty folder deleted", func(t *testing.T) {
		f, err := folderSvc.CreateFolder(ctx, p, "scratch", "")
		require.NoError(t, err)
		require.NoError(t, folderSvc.DeleteFolder(ctx, p, f.ID.Hex()))

		list, err := folderSvc.ListFolders(ctx, p, "", "")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("folder with child folder rejected", func(t *testing.T) {
		parent, err := folderSvc.CreateFolder(ctx, p, "parent", "")
		require.NoError(t, err)
		_, err = folderSvc.CreateFolder(ctx, p, "child", parent.ID.Hex())
		require.NoError(t, err)

		assert.ErrorIs(t, folderSvc.DeleteFolder(ctx, p, parent.ID.Hex()), ErrFolderNotEmpty)
	})

	t.Run("folder with items rejected", func(t *testing.T) {
		f, err := folderSvc.CreateFolder(ctx, p, "full", "")
		require.NoError(t, err)
		_, err = vaultSvc.Upload(ctx, p, UploadInput{
			FileName: "a.txt", MimeType: "text/plain", FolderID: f.ID.Hex(), Content: []byte("x"),
		})
		require.NoError(t, err)

		assert.ErrorIs(t, folderSvc.DeleteFolder(ctx, p, f.ID.Hex()), ErrFolderNotEmpty)
	})

	t.Run("folder empties after soft delete of items", func(t *testing.T) {
		f, err := folderSvc.CreateFolder(ctx, p, "emptied", "")
		require.NoError(t, err)
		item, err := vaultSvc.Upload(ctx, p, UploadInput{
			FileName: "b.txt", MimeType: "text/plain", FolderID: f.ID.Hex(), Content: []byte("y"),
		})
		require.NoError(t, err)
		require.NoError(t, vaultSvc.Delete(ctx, p, item.ID.Hex(), ""))

		assert.NoError(t, folderSvc.DeleteFolder(ctx, p, f.ID.Hex()))
	})

	t.Run("unknown folder", func(t *testing.T) {
		assert.ErrorIs(t, folderSvc.DeleteFolder(ctx, p, bson.NewObjectID().Hex()), store.ErrNotFound)
	})
}
