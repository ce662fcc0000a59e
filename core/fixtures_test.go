package core

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/putto11262002/websession/pkg/password"
	"github.com/putto11262002/websession/pkg/token"
)

type BaseFixture struct {
	ctx      context.Context
	db       *SQLiteDB
	t        *testing.T
	tearDown func()
}

func NewBaseFixture(t *testing.T) *BaseFixture {
	ctx, cancel := context.WithCancel(context.Background())

	// a named shared-cache memory database keeps every pooled connection on the same data
	db, err := NewSQLiteDB(uuid.NewString(), "", &SQLiteDBOption{Mode: "memory", Cache: "shared"})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	return &BaseFixture{
		ctx: ctx,
		db:  db,
		t:   t,
		tearDown: func() {
			cancel()
			db.Close()
		},
	}
}

type SessionFixture struct {
	*BaseFixture
	userStore *SQLiteUserStore
	tokens    *token.Service
	sessions  *SessionService
	now       time.Time
}

var secret = []byte("c2VjcmV0")

var testHasherConfig = password.Config{
	Memory:      8 * 1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func NewSessionFixture(t *testing.T, secure bool) *SessionFixture {
	base := NewBaseFixture(t)
	f := &SessionFixture{
		BaseFixture: base,
		userStore:   NewSQLiteUserStore(base.db.DB),
		now:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	tokens, err := token.NewService(token.Options{
		Secret: secret,
		Now:    func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatal(err)
	}
	f.tokens = tokens
	f.sessions = NewSessionService(f.userStore, tokens, SessionOptions{
		Secure: secure,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

type seedUser struct {
	Username    string
	Password    string
	DisplayName string
}

func seedUsers(ctx context.Context, t *testing.T, userStore *SQLiteUserStore, users ...seedUser) []int64 {
	t.Helper()
	hasher, err := password.NewArgon2(testHasherConfig)
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			t.Fatal(err)
		}
		id, err := userStore.CreateUser(ctx, User{
			Username:     u.Username,
			PasswordHash: hash,
			DisplayName:  u.DisplayName,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return ids
}
