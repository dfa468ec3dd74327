package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func SeedUsers(db *sqlx.DB) error {
	// Check if users already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding test users...")

	// Hash passwords
	citizenPassword, err := bcrypt.GenerateFromPassword([]byte("citizen123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	driverPassword, err := bcrypt.GenerateFromPassword([]byte("driver123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []map[string]interface{}{
		{
			"id":       uuid.New().String(),
			"email":    "citizen@wastetrack.app",
			"password": string(citizenPassword),
			"name":     "Carla Citizen",
			"role":     "citizen",
		},
		{
			"id":       uuid.New().String(),
			"email":    "driver@wastetrack.app",
			"password": string(driverPassword),
			"name":     "John Driver",
			"role":     "driver",
		},
		{
			"id":       uuid.New().String(),
			"email":    "driver2@wastetrack.app",
			"password": string(driverPassword),
			"name":     "Dana Driver",
			"role":     "driver",
		},
		{
			"id":       uuid.New().String(),
			"email":    "admin@wastetrack.app",
			"password": string(adminPassword),
			"name":     "Amy Admin",
			"role":     "admin",
		},
	}

	for _, user := range users {
		_, err := db.Exec(`
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
		`, user["id"], user["email"], user["password"], user["name"], user["role"])

		if err != nil {
			return err
		}
	}

	log.Printf("✓ Successfully seeded %d users", len(users))
	return nil
}
