// seed-staff creates or updates a staff user and prints a signed bearer token
// for it. Intended for local and staging environments.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... API_SECRET=... go run ./cmd/seed-staff -username kitchenAdmin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "kitchenAdmin", "Staff username")
	name := flag.String("name", "Kitchen Admin", "Display name")
	flag.Parse()

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "--username is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", *username).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = models.User{
			Username: *username,
			Name:     *name,
			IsStaff:  true,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&existing).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create staff user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created staff user %q (id=%d)\n", existing.Username, existing.ID)
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	default:
		if err := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"IsStaff":  true,
			"IsActive": true,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("updated staff user %q (id=%d)\n", existing.Username, existing.ID)
	}

	token, err := utils.JwtGenerate(existing.ID, existing.Username, utils.RoleStaff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
