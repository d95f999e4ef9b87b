package testutil

import (
	"testing"

	"github.com/Barrelito/sam-a-sub001/Models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database private to t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := Models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Fixture is a small organization: one unit with two stations and users
// covering every role.
type Fixture struct {
	Unit     Models.OrganizationalUnit
	StationA Models.Station
	StationB Models.Station
	Admin    Models.User
	Chief    Models.User
	Manager  Models.User
	Employee Models.User
	Loner    Models.User
}

const Password = "hunter22"

// Seed inserts a Fixture. Manager belongs to StationA then StationB,
// Employee to StationB, Loner to nothing.
func Seed(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var f Fixture
	f.Unit = Models.OrganizationalUnit{Name: "VO Nord"}
	mustCreate(t, db, &f.Unit)
	f.StationA = Models.Station{Name: "Station A", OrganizationalUnitID: f.Unit.ID}
	mustCreate(t, db, &f.StationA)
	f.StationB = Models.Station{Name: "Station B", OrganizationalUnitID: f.Unit.ID}
	mustCreate(t, db, &f.StationB)

	newUser := func(name string, role Models.Role) Models.User {
		u := Models.User{Name: name, Email: name + "@example.org", Password: hash, Role: role, OrganizationalUnitID: &f.Unit.ID}
		mustCreate(t, db, &u)
		return u
	}
	f.Admin = newUser("admin", Models.RoleAdmin)
	f.Chief = newUser("chief", Models.RoleVOChief)
	f.Manager = newUser("manager", Models.RoleStationManager)
	f.Employee = newUser("employee", Models.RoleEmployee)
	f.Loner = newUser("loner", Models.RoleEmployee)

	f.Unit.ChiefUserID = &f.Chief.ID
	if err := db.Save(&f.Unit).Error; err != nil {
		t.Fatalf("save unit: %v", err)
	}

	mustCreate(t, db, &Models.UserStationLink{UserID: f.Manager.ID, StationID: f.StationA.ID})
	mustCreate(t, db, &Models.UserStationLink{UserID: f.Manager.ID, StationID: f.StationB.ID})
	mustCreate(t, db, &Models.UserStationLink{UserID: f.Employee.ID, StationID: f.StationB.ID})
	return f
}

// Month returns a pointer for RecurringTask.Month.
func Month(m int) *int {
	return &m
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
