package repository

import (
	"context"
	"testing"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	domainRepo "github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedClient(t *testing.T, repo domainRepo.ClientRepository, userID uuid.UUID, email string, status enum.ClientStatus, invoiced, paid int64) *entity.Client {
	t.Helper()
	client := &entity.Client{
		UserID:        userID,
		Name:          "Client " + email,
		Email:         email,
		Status:        status,
		TotalInvoiced: invoiced,
		TotalPaid:     paid,
	}
	require.NoError(t, repo.Create(context.Background(), client))
	return client
}

func TestClientRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewClientRepository(db)
	userID := uuid.New()

	seedClient(t, repo, userID, "billing@acme.test", enum.ClientStatusActive, 0, 0)

	t.Run("duplicate email for the same user is a conflict", func(t *testing.T) {
		err := repo.Create(ctx, &entity.Client{
			UserID: userID,
			Name:   "Acme Again",
			Email:  "billing@acme.test",
			Status: enum.ClientStatusActive,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("same email under another user is fine", func(t *testing.T) {
		err := repo.Create(ctx, &entity.Client{
			UserID: uuid.New(),
			Name:   "Acme Elsewhere",
			Email:  "billing@acme.test",
			Status: enum.ClientStatusActive,
		})
		assert.NoError(t, err)
	})
}

func TestClientStatsByStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewClientRepository(db)
	userID := uuid.New()

	seedClient(t, repo, userID, "a@x.test", enum.ClientStatusActive, 10000, 6000)
	seedClient(t, repo, userID, "b@x.test", enum.ClientStatusActive, 2000, 2000)
	seedClient(t, repo, userID, "c@x.test", enum.ClientStatusInactive, 5000, 5000)
	// Another user's clients stay out
	seedClient(t, repo, uuid.New(), "d@x.test", enum.ClientStatusActive, 99999, 0)

	rows, err := repo.StatsByStatus(ctx, userID)
	require.NoError(t, err)

	byStatus := make(map[enum.ClientStatus]struct {
		count, invoiced, paid int64
	})
	for _, row := range rows {
		byStatus[row.Status] = struct{ count, invoiced, paid int64 }{row.Count, row.TotalInvoiced, row.TotalPaid}
	}

	active := byStatus[enum.ClientStatusActive]
	assert.Equal(t, int64(2), active.count)
	assert.Equal(t, int64(12000), active.invoiced)
	assert.Equal(t, int64(8000), active.paid)

	inactive := byStatus[enum.ClientStatusInactive]
	assert.Equal(t, int64(1), inactive.count)
	assert.Equal(t, int64(5000), inactive.invoiced)
	assert.Equal(t, int64(5000), inactive.paid)
}

func TestWithOutstandingBalance(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewClientRepository(db)
	userID := uuid.New()

	seedClient(t, repo, userID, "small@x.test", enum.ClientStatusActive, 5000, 4000)
	seedClient(t, repo, userID, "big@x.test", enum.ClientStatusActive, 100000, 0)
	seedClient(t, repo, userID, "settled@x.test", enum.ClientStatusActive, 5000, 5000)
	seedClient(t, repo, userID, "gone@x.test", enum.ClientStatusInactive, 9000, 0)

	clients, err := repo.WithOutstandingBalance(ctx, userID)
	require.NoError(t, err)

	require.Len(t, clients, 2)
	assert.Equal(t, "big@x.test", clients[0].Email)
	assert.Equal(t, "small@x.test", clients[1].Email)
}
