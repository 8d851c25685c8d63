package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one account per role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			// ledgers cascade from users
			if _, err := db.Exec("TRUNCATE users RESTART IDENTITY CASCADE"); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing users and ledgers")
		}

		password := "password"
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		adminID := seedUser(db, seedAccount{username: "admin", first: "Site", last: "Admin", role: role.Admin}, hash, nil)
		supervisorID := seedUser(db, seedAccount{username: "supervisor", first: "Sari", last: "Wijaya", role: role.Supervisor}, hash, nil)
		seedUser(db, seedAccount{username: "electrician", first: "Budi", last: "Santoso", role: role.Electrician, site: "Gardu Induk Cawang"}, hash, &supervisorID)
		seedUser(db, seedAccount{username: "storekeeper", first: "Rina", last: "Lestari", role: role.Storekeeper, site: "Gudang Pusat"}, hash, &supervisorID)

		fmt.Printf("Seeded accounts (admin id %d, supervisor id %d), password: %s\n", adminID, supervisorID, password)
	},
}

type seedAccount struct {
	username string
	first    string
	last     string
	role     role.Role
	site     string
}

// seedUser inserts the account unless the username is taken and returns
// its id either way.
func seedUser(db *sqlx.DB, a seedAccount, hash []byte, supervisorID *int64) int64 {
	var id int64
	err := db.Get(&id, db.Rebind("SELECT id FROM users WHERE username = ?"), a.username)
	if err == nil {
		fmt.Println("user already exists:", a.username)
		return id
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to look up user %s: %v", a.username, err)
	}

	var site *string
	if a.site != "" {
		site = &a.site
	}

	query := db.Rebind(`INSERT INTO users
		(username, email, first_name, last_name, password_hash, role, site_location, supervisor_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, true, now(), now())
		RETURNING id`)
	email := a.username + "@electrotrack.local"
	if err := db.Get(&id, query, a.username, email, a.first, a.last, string(hash), string(a.role), site, supervisorID); err != nil {
		log.Fatalf("failed to insert user %s: %v", a.username, err)
	}

	fmt.Printf("Seeded %s user: %s\n", a.role, a.username)
	return id
}
