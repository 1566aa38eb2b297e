package user

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestFriendRepository_AreFriends(t *testing.T) {
	tests := []struct {
		name  string
		count int64
		want  bool
	}{
		{name: "accepted in either direction", count: 1, want: true},
		{name: "no accepted friendship", count: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			mock.ExpectQuery(regexp.QuoteMeta(
				"SELECT count(*) FROM `friends` WHERE ((user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)) AND status = ?")).
				WithArgs(1, 2, 2, 1, "accepted").
				WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(tt.count))

			repo := NewFriendRepository(gormDB)
			ok, err := repo.AreFriends(context.Background(), 1, 2)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
