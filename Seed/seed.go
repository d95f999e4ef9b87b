// Package Seed loads reference data from a JSON5 file. Running it twice
// with the same file leaves the database unchanged.
package Seed

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type File struct {
	OrgUnits  []OrgUnit   `json:"org_units"`
	Users     []User      `json:"users"`
	Items     []Item      `json:"items"`
	Criteria  []Criterion `json:"criteria"`
	Employees []Employee  `json:"employees"`
	Cycles    []Cycle     `json:"cycles"`
}

type OrgUnit struct {
	Name       string   `json:"name"`
	ChiefEmail string   `json:"chief_email"`
	Stations   []string `json:"stations"`
}

type User struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	OrgUnit  string   `json:"org_unit"`
	Stations []string `json:"stations"`
}

type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Month       *int   `json:"month"`
	Category    string `json:"category"`
	Year        int    `json:"year"`
}

type Criterion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type Employee struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Title     string `json:"title"`
	Station   string `json:"station"`
	UserEmail string `json:"user_email"`
}

type Cycle struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Active    bool   `json:"active"`
}

// Stats counts the rows created by a run.
type Stats struct {
	OrgUnits, Stations, Users, Links, Items, Criteria, Employees, Cycles int
}

// Parse decodes a JSON5 seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := json5.Unmarshal(data, &f); err != nil {
		return File{}, errors.Wrap(err, "decode seed file")
	}
	return f, nil
}

// LoadFile reads path and applies it to db.
func LoadFile(ctx context.Context, db *gorm.DB, path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return Stats{}, errors.Wrap(err, path)
	}
	return Apply(ctx, db, f)
}

// Apply inserts everything in f that is not already present.
func Apply(ctx context.Context, db *gorm.DB, f File) (Stats, error) {
	var stats Stats
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := seeder{tx: tx, units: map[string]uint{}, stations: map[string]uint{}, stats: &stats}
		steps := []func(File) error{s.orgUnits, s.users, s.chiefs, s.items, s.criteria, s.employees, s.cycles}
		for _, step := range steps {
			if err := step(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	Logging.GetLogger().WithField("stats", stats).Info("seed applied")
	return stats, nil
}

type seeder struct {
	tx       *gorm.DB
	units    map[string]uint
	stations map[string]uint
	stats    *Stats
}

// firstOrCreate loads the row matching query into dest, inserting dest
// when there is none. It reports whether a row was created.
func firstOrCreate[T any](tx *gorm.DB, dest *T, query string, args ...interface{}) (bool, error) {
	res := tx.Where(query, args...).Limit(1).Find(dest)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "look up %T", dest)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Create(dest).Error; err != nil {
		return false, errors.Wrapf(err, "create %T", dest)
	}
	return true, nil
}

func (s seeder) orgUnits(f File) error {
	for _, u := range f.OrgUnits {
		unit := Models.OrganizationalUnit{Name: u.Name}
		created, err := firstOrCreate(s.tx, &unit, "name = ?", u.Name)
		if err != nil {
			return err
		}
		if created {
			s.stats.OrgUnits++
		}
		s.units[u.Name] = unit.ID

		for _, name := range u.Stations {
			station := Models.Station{Name: name, OrganizationalUnitID: unit.ID}
			created, err := firstOrCreate(s.tx, &station, "name = ? AND organizational_unit_id = ?", name, unit.ID)
			if err != nil {
				return err
			}
			if created {
				s.stats.Stations++
			}
			s.stations[name] = station.ID
		}
	}
	return nil
}

func (s seeder) stationID(name string) (uint, error) {
	id, ok := s.stations[name]
	if !ok {
		return 0, errors.Errorf("unknown station %q", name)
	}
	return id, nil
}

// normalizeEmail matches the form Login and RegisterUser store.
func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (s seeder) users(f File) error {
	for _, u := range f.Users {
		u.Email = normalizeEmail(u.Email)
		role := Models.Role(u.Role)
		if role == "" {
			role = Models.RoleEmployee
		}
		if !role.Valid() {
			return errors.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}

		user := Models.User{Name: u.Name, Email: u.Email, Role: role}
		if u.OrgUnit != "" {
			id, ok := s.units[u.OrgUnit]
			if !ok {
				return errors.Errorf("user %s: unknown org unit %q", u.Email, u.OrgUnit)
			}
			user.OrganizationalUnitID = &id
		}

		var existing int64
		if err := s.tx.Model(&Models.User{}).Where("email = ?", u.Email).Count(&existing).Error; err != nil {
			return errors.Wrap(err, "look up user")
		}
		if existing == 0 {
			if len(u.Password) < 8 {
				return errors.Errorf("user %s: password must be at least 8 characters", u.Email)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			user.Password = hash
		}
		created, err := firstOrCreate(s.tx, &user, "email = ?", u.Email)
		if err != nil {
			return err
		}
		if created {
			s.stats.Users++
		}

		for _, name := range u.Stations {
			stationID, err := s.stationID(name)
			if err != nil {
				return errors.Wrapf(err, "user %s", u.Email)
			}
			link := Models.UserStationLink{UserID: user.ID, StationID: stationID}
			created, err := firstOrCreate(s.tx, &link, "user_id = ? AND station_id = ?", user.ID, stationID)
			if err != nil {
				return err
			}
			if created {
				s.stats.Links++
			}
		}
	}
	return nil
}

func (s seeder) chiefs(f File) error {
	for _, u := range f.OrgUnits {
		if u.ChiefEmail == "" {
			continue
		}
		var chief Models.User
		if err := s.tx.Where("email = ?", normalizeEmail(u.ChiefEmail)).First(&chief).Error; err != nil {
			return errors.Wrapf(err, "chief %s of %s", u.ChiefEmail, u.Name)
		}
		err := s.tx.Model(&Models.OrganizationalUnit{}).
			Where("id = ?", s.units[u.Name]).
			Update("chief_user_id", chief.ID).Error
		if err != nil {
			return errors.Wrap(err, "set unit chief")
		}
	}
	return nil
}

func (s seeder) items(f File) error {
	for _, it := range f.Items {
		item := Models.RecurringTask{
			Title:       it.Title,
			Description: it.Description,
			Month:       it.Month,
			Category:    it.Category,
			IsRecurring: true,
			Year:        it.Year,
		}
		query, args := "title = ? AND month IS NULL", []interface{}{it.Title}
		if it.Month != nil {
			query, args = "title = ? AND month = ?", []interface{}{it.Title, *it.Month}
		}
		created, err := firstOrCreate(s.tx, &item, query, args...)
		if err != nil {
			return err
		}
		if created {
			s.stats.Items++
		}
	}
	return nil
}

func (s seeder) criteria(f File) error {
	for _, c := range f.Criteria {
		criterion := Models.SalaryCriterion{Title: c.Title, Description: c.Description, SortOrder: c.SortOrder}
		created, err := firstOrCreate(s.tx, &criterion, "title = ?", c.Title)
		if err != nil {
			return err
		}
		if created {
			s.stats.Criteria++
		}
	}
	return nil
}

func (s seeder) employees(f File) error {
	for _, e := range f.Employees {
		stationID, err := s.stationID(e.Station)
		if err != nil {
			return errors.Wrapf(err, "employee %s", e.Name)
		}
		employee := Models.Employee{Name: e.Name, Email: e.Email, Title: e.Title, StationID: &stationID}
		if e.UserEmail != "" {
			var user Models.User
			if err := s.tx.Where("email = ?", normalizeEmail(e.UserEmail)).First(&user).Error; err != nil {
				return errors.Wrapf(err, "employee %s: user %s", e.Name, e.UserEmail)
			}
			employee.UserID = &user.ID
		}
		created, err := firstOrCreate(s.tx, &employee, "name = ? AND station_id = ?", e.Name, stationID)
		if err != nil {
			return err
		}
		if created {
			s.stats.Employees++
		}
	}
	return nil
}

func (s seeder) cycles(f File) error {
	for _, c := range f.Cycles {
		start, err := parseDate(c.StartDate)
		if err != nil {
			return errors.Wrapf(err, "cycle %s start_date", c.Name)
		}
		end, err := parseDate(c.EndDate)
		if err != nil {
			return errors.Wrapf(err, "cycle %s end_date", c.Name)
		}
		if c.Active {
			// a single active cycle
			if err := s.tx.Model(&Models.SalaryReviewCycle{}).Where("is_active = ? AND name <> ?", true, c.Name).Update("is_active", false).Error; err != nil {
				return errors.Wrap(err, "deactivate cycles")
			}
		}

		cycle := Models.SalaryReviewCycle{Name: c.Name, StartDate: start, EndDate: end, IsActive: c.Active}
		created, err := firstOrCreate(s.tx, &cycle, "name = ?", c.Name)
		if err != nil {
			return err
		}
		if created {
			s.stats.Cycles++
		} else if cycle.IsActive != c.Active {
			if err := s.tx.Model(&cycle).Update("is_active", c.Active).Error; err != nil {
				return errors.Wrap(err, "update cycle")
			}
		}
	}
	return nil
}

func parseDate(v string) (datatypes.Date, error) {
	if v == "" {
		return datatypes.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}
