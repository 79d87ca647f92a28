package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/ahmednader515/answer-guide-platform/core/access"
)

type accessRepository struct {
	db *DB
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *DB) *accessRepository {
	return &accessRepository{db: db}
}

func (repo *accessRepository) HasActivePurchase(ctx context.Context, userID, courseID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.purchases {
		if p.UserID == userID && p.CourseID == courseID && p.Status == access.PurchaseActive {
			return true, nil
		}
	}
	return false, nil
}

func (repo *accessRepository) CreatePurchase(ctx context.Context, p access.Purchase) (access.Purchase, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = uuid.New().String()
	repo.db.purchases[p.ID] = &p
	return p, nil
}

func (repo *accessRepository) GetGrant(ctx context.Context, userID, chapterID string) (access.ChapterAccess, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, g := range repo.db.grants {
		if g.UserID == userID && g.ChapterID == chapterID {
			return *g, nil
		}
	}
	return access.ChapterAccess{}, access.ErrGrantNotFound
}

func (repo *accessRepository) CreateGrant(ctx context.Context, g access.ChapterAccess) (access.ChapterAccess, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.grants {
		if existing.UserID == g.UserID && existing.ChapterID == g.ChapterID {
			return access.ChapterAccess{}, access.ErrGrantExists
		}
	}

	g.ID = uuid.New().String()
	repo.db.grants[g.ID] = &g
	return g, nil
}

func (repo *accessRepository) DeleteGrant(ctx context.Context, userID, chapterID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, g := range repo.db.grants {
		if g.UserID == userID && g.ChapterID == chapterID {
			delete(repo.db.grants, id)
			return nil
		}
	}
	return access.ErrGrantNotFound
}

func (repo *accessRepository) QueryGrantedChapterIDs(ctx context.Context, userID, courseID, ownerID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]string, 0)
	for _, g := range repo.db.grants {
		if g.UserID != userID {
			continue
		}
		ch, ok := repo.db.chapters[g.ChapterID]
		if !ok {
			continue
		}
		if courseID != "" && ch.CourseID != courseID {
			continue
		}
		if ownerID != "" {
			crs, ok := repo.db.courses[ch.CourseID]
			if !ok || crs.OwnerID != ownerID {
				continue
			}
		}
		ids = append(ids, g.ChapterID)
	}
	return ids, nil
}
