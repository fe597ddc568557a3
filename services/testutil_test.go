package services_test

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

// setupTestDB -> in-memory SQLite with the full schema and a seeded
// restaurant, one table and two menu items.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Membership{},
		&models.UserSession{},
		&models.Table{},
		&models.TableStatusEvent{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	restaurant := models.Restaurant{Name: "Testaurant", Slug: "testaurant"}
	db.Create(&restaurant)
	db.Create(&models.Table{RestaurantID: restaurant.ID, Number: "5", Capacity: 4, Status: models.TableAvailable})
	db.Create(&models.MenuItem{RestaurantID: restaurant.ID, Name: "Burger", Price: 12.99, Available: true})
	db.Create(&models.MenuItem{RestaurantID: restaurant.ID, Name: "Fries", Price: 4.99, Available: true})

	return db
}

// newStack builds the three wired services over one database.
func newStack(db *gorm.DB) (*services.TableService, *services.OrderService, *services.CartService) {
	tables := services.NewTableService(db)
	orders := services.NewOrderService(db, tables)
	carts := services.NewCartService(db, tables, orders)
	return tables, orders, carts
}

func tableByNumber(t *testing.T, db *gorm.DB, number string) *models.Table {
	t.Helper()
	var table models.Table
	if err := db.Where("number = ?", number).First(&table).Error; err != nil {
		t.Fatalf("table %s not found: %v", number, err)
	}
	return &table
}

func menuByName(t *testing.T, db *gorm.DB, name string) *models.MenuItem {
	t.Helper()
	var item models.MenuItem
	if err := db.Where("name = ?", name).First(&item).Error; err != nil {
		t.Fatalf("menu item %s not found: %v", name, err)
	}
	return &item
}
