package repository_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRepoTest(t *testing.T) (repository.CartRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewCartRepo(db)
	require.NotNil(t, repo)

	return repo, mock
}

func TestCartRepository(t *testing.T) {
	repo, mock := setupCartRepoTest(t)
	ctx := t.Context()

	userID := uuid.New()
	cartID := uuid.New()
	now := time.Now()

	items := []models.LineItem{
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("19.99"), Size: "M", Color: "blue"},
	}
	itemsJSON, err := json.Marshal(items)
	require.NoError(t, err)

	t.Run("Create Cart", func(t *testing.T) {
		cart := &models.Cart{ID: cartID, UserID: userID}

		emptyJSON, err := json.Marshal(cart.Items)
		require.NoError(t, err)

		t.Run("Success", func(t *testing.T) {
			mock.ExpectQuery(`INSERT INTO carts`).
				WithArgs(cart.ID, cart.UserID, emptyJSON, cart.Version).
				WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

			err := repo.CreateCart(ctx, cart)

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Database Error", func(t *testing.T) {
			dbError := errors.New("insert failed")
			mock.ExpectQuery(`INSERT INTO carts`).
				WithArgs(cart.ID, cart.UserID, emptyJSON, cart.Version).
				WillReturnError(dbError)

			err := repo.CreateCart(ctx, cart)

			assert.ErrorIs(t, err, dbError)
		})
	})

	t.Run("Get Cart By User ID", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			rows := sqlmock.NewRows([]string{"id", "user_id", "items", "version", "created_at", "updated_at"}).
				AddRow(cartID, userID, itemsJSON, 4, now, now)

			mock.ExpectQuery(`SELECT id, user_id, items, version, created_at, updated_at FROM carts`).
				WithArgs(userID).
				WillReturnRows(rows)

			cart, err := repo.GetCartByUserID(ctx, userID)

			require.NoError(t, err)
			assert.Equal(t, cartID, cart.ID)
			assert.Equal(t, 4, cart.Version)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, 2, cart.Items[0].Quantity)
			assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
		})

		t.Run("Failure - No Cart", func(t *testing.T) {
			mock.ExpectQuery(`SELECT id, user_id, items, version, created_at, updated_at FROM carts`).
				WithArgs(userID).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			cart, err := repo.GetCartByUserID(ctx, userID)

			assert.Nil(t, cart)
			assert.Error(t, err)
		})
	})

	t.Run("Update Cart", func(t *testing.T) {
		t.Run("Success - Version Bumped", func(t *testing.T) {
			cart := &models.Cart{ID: cartID, UserID: userID, Items: items, Version: 4}

			mock.ExpectExec(`UPDATE carts SET items = \$1, version = version \+ 1`).
				WithArgs(itemsJSON, cart.ID, 4).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateCart(ctx, cart)

			require.NoError(t, err)
			assert.Equal(t, 5, cart.Version)
		})

		t.Run("Failure - Stale Version", func(t *testing.T) {
			cart := &models.Cart{ID: cartID, UserID: userID, Items: items, Version: 3}

			mock.ExpectExec(`UPDATE carts SET items = \$1, version = version \+ 1`).
				WithArgs(itemsJSON, cart.ID, 3).
				WillReturnResult(sqlmock.NewResult(0, 0))

			err := repo.UpdateCart(ctx, cart)

			assert.ErrorIs(t, err, repository.ErrVersionConflict)
			// a failed write must not advance the in-memory version
			assert.Equal(t, 3, cart.Version)
		})
	})
}
