package archive

import (
	"context"

	"github.com/sirupsen/logrus"
)

// NewStore picks the archive backend from the database URL. An empty URL
// selects the in-memory store.
func NewStore(ctx context.Context, databaseURL string, log *logrus.Logger) (Store, error) {
	if databaseURL == "" {
		log.Info("DATABASE_URL not set, archiving transcripts in memory")
		return NewInMemoryStore(), nil
	}
	store, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("archiving transcripts in postgres")
	return store, nil
}
