package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/errors"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := New(settings)
	require.NotNil(t, store)
	sqliteStore, ok := store.(*SQLiteStore)
	require.True(t, ok)

	require.NoError(t, sqliteStore.Open())
	t.Cleanup(func() {
		assert.NoError(t, sqliteStore.Close())
	})
	return sqliteStore
}

func testUser(username string) *User {
	return &User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Fullname:     "Test User",
		Email:        username + "@example.com",
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := openTestStore(t)

	user := testUser("budi")
	require.NoError(t, store.CreateUser(user))
	assert.NotZero(t, user.ID)

	got, err := store.GetUser("budi")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "budi", got.Username)

	byID, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "budi", byID.Username)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.CreateUser(testUser("budi")))
	err := store.CreateUser(testUser("budi"))
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestGetUser_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetUser("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.GetUserByID(12345)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSaveDetection_UnknownUser(t *testing.T) {
	store := openTestStore(t)

	rec := &Detection{UserID: 999, ImagePath: "x.png", Confidence: 0.5}
	err := store.SaveDetection(rec)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserDetections_NewestFirst(t *testing.T) {
	store := openTestStore(t)

	user := testUser("budi")
	require.NoError(t, store.CreateUser(user))

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"first.png", "second.png", "third.png"} {
		rec := &Detection{
			UserID:        user.ID,
			DetectionDate: base.Add(time.Duration(i) * time.Hour),
			ImagePath:     name,
			Confidence:    0.8,
		}
		require.NoError(t, rec.SetDiseases([]string{"Downy_Mildew (80.0%)"}))
		require.NoError(t, store.SaveDetection(rec))
	}

	detections, err := store.GetUserDetections(user.ID)
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, "third.png", detections[0].ImagePath)
	assert.Equal(t, "second.png", detections[1].ImagePath)
	assert.Equal(t, "first.png", detections[2].ImagePath)
}

func TestGetUserDetections_EmptyHistory(t *testing.T) {
	store := openTestStore(t)

	user := testUser("budi")
	require.NoError(t, store.CreateUser(user))

	detections, err := store.GetUserDetections(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, detections)
	assert.Empty(t, detections)
}

func TestDeleteUser_CascadesToDetections(t *testing.T) {
	store := openTestStore(t)

	keeper := testUser("siti")
	require.NoError(t, store.CreateUser(keeper))
	victim := testUser("budi")
	require.NoError(t, store.CreateUser(victim))

	for _, u := range []*User{keeper, victim} {
		rec := &Detection{UserID: u.ID, ImagePath: u.Username + ".png", Confidence: 0.9}
		require.NoError(t, store.SaveDetection(rec))
	}

	require.NoError(t, store.DeleteUser(victim.ID))

	_, err := store.GetUserByID(victim.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	gone, err := store.GetUserDetections(victim.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.GetUserDetections(keeper.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestDeleteUser_NotFound(t *testing.T) {
	store := openTestStore(t)
	assert.ErrorIs(t, store.DeleteUser(424242), ErrUserNotFound)
}

func TestDetection_DiseaseListRoundTrip(t *testing.T) {
	rec := &Detection{}
	require.NoError(t, rec.SetDiseases([]string{"Downy_Mildew (92.5%)", "Virus_Gemini (60.0%)"}))
	assert.Equal(t, []string{"Downy_Mildew (92.5%)", "Virus_Gemini (60.0%)"}, rec.DiseaseList())

	empty := &Detection{}
	assert.Empty(t, empty.DiseaseList())

	corrupt := &Detection{Diseases: "{not json"}
	assert.Empty(t, corrupt.DiseaseList())
}

func TestCreateUser_NilDB(t *testing.T) {
	ds := &DataStore{}
	err := ds.CreateUser(testUser("budi"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryState, errors.CategoryOf(err))
}
