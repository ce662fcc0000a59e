// Command useradd creates a credential record in the session service's database.
//
//	useradd -db ./auth.db -username alice [-name "Alice"] < password.txt
//
// The password is read from the first line of stdin so it never shows up in
// the process list or shell history.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/putto11262002/websession/core"
	"github.com/putto11262002/websession/pkg/password"
)

func main() {
	dsn := flag.String("db", "", "path of the SQLite database")
	username := flag.String("username", "", "username of the new user")
	name := flag.String("name", "", "optional display name")
	flag.Parse()

	if *dsn == "" || *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), *dsn, *username, *name); err != nil {
		fmt.Fprintf(os.Stderr, "useradd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn, username, name string) error {
	pw, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && pw == "" {
		return fmt.Errorf("reading password: %w", err)
	}
	pw = strings.TrimRight(pw, "\r\n")

	hasher, err := password.NewArgon2(password.DefaultConfig)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(pw)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	db, err := core.NewSQLiteDB(dsn, "", &core.SQLiteDBOption{Mode: "rwc", JournalMode: "WAL"})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	id, err := core.NewSQLiteUserStore(db.DB).CreateUser(ctx, core.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  name,
	})
	if errors.Is(err, core.ErrConflictedUser) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return err
	}

	fmt.Printf("created user %q with id %d\n", username, id)
	return nil
}
