package Seed_test

import (
	"context"
	"testing"

	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/Seed"
	"github.com/Barrelito/sam-a-sub001/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadFile(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	stats, err := Seed.LoadFile(ctx, db, "testdata/station.json5")
	require.NoError(t, err)
	assert.Equal(t, Seed.Stats{OrgUnits: 1, Stations: 2, Users: 3, Links: 2, Items: 5, Criteria: 3, Employees: 2, Cycles: 1}, stats)

	var unit Models.OrganizationalUnit
	require.NoError(t, db.Preload("Stations").Where("name = ?", "VO Nord").First(&unit).Error)
	assert.Len(t, unit.Stations, 2)

	var chief Models.User
	require.NoError(t, db.Where("email = ?", "chief@example.org").First(&chief).Error)
	require.NotNil(t, unit.ChiefUserID)
	assert.Equal(t, chief.ID, *unit.ChiefUserID)
	assert.Equal(t, Models.RoleVOChief, chief.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword(chief.Password, []byte("change-me-now")))

	var noMonth Models.RecurringTask
	require.NoError(t, db.Where("title = ?", "Ad hoc review").First(&noMonth).Error)
	assert.Nil(t, noMonth.Month)

	var cycle Models.SalaryReviewCycle
	require.NoError(t, db.Where("is_active = ?", true).First(&cycle).Error)
	assert.Equal(t, "2025", cycle.Name)

	t.Run("SecondRunCreatesNothing", func(t *testing.T) {
		again, err := Seed.LoadFile(ctx, db, "testdata/station.json5")
		require.NoError(t, err)
		assert.Equal(t, Seed.Stats{}, again)

		var users int64
		require.NoError(t, db.Model(&Models.User{}).Count(&users).Error)
		assert.Equal(t, int64(3), users)
	})
}

func TestParseJSON5(t *testing.T) {
	f, err := Seed.Parse([]byte(`{
		// comments and trailing commas are allowed
		items: [{title: "Fire drill", month: 9,},],
	}`))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)
	assert.Equal(t, 9, *f.Items[0].Month)

	_, err = Seed.Parse([]byte(`{items: [`))
	assert.Error(t, err)
}

func TestParseCommentBeforeClosingBracket(t *testing.T) {
	// The decoder does not skip a comment between a trailing comma and the
	// closing bracket. Seed files put such comments after the last element
	// without a comma.
	_, err := Seed.Parse([]byte("{items: [\n{title: \"a\"}, // c\n],}"))
	assert.Error(t, err)

	f, err := Seed.Parse([]byte("{items: [\n{title: \"a\"} // c\n],}"))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "a", f.Items[0].Title)

	f, err = Seed.Parse([]byte("{items: [\n{title: \"a\"},\n],}"))
	require.NoError(t, err)
	assert.Len(t, f.Items, 1)
}

func TestApplyRejectsBadReferences(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := Seed.Apply(ctx, db, Seed.File{
		Users: []Seed.User{{Name: "X", Email: "x@example.org", Password: "longenough", Role: "pilot"}},
	})
	assert.Error(t, err)

	_, err = Seed.Apply(ctx, db, Seed.File{
		Employees: []Seed.Employee{{Name: "Y", Station: "Nowhere"}},
	})
	assert.Error(t, err)

	// the failed runs left nothing behind
	var users int64
	require.NoError(t, db.Model(&Models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestApplyNormalizesEmails(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	stats, err := Seed.Apply(ctx, db, Seed.File{
		OrgUnits: []Seed.OrgUnit{{Name: "VO Syd", ChiefEmail: "Chief@Example.org", Stations: []string{"Station Lund"}}},
		Users: []Seed.User{
			{Name: "Chief", Email: " Chief@Example.ORG ", Password: "change-me-now", Role: "vo_chief", OrgUnit: "VO Syd"},
		},
		Employees: []Seed.Employee{{Name: "Cecilia", Station: "Station Lund", UserEmail: "CHIEF@example.org"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Users)

	var chief Models.User
	require.NoError(t, db.Where("email = ?", "chief@example.org").First(&chief).Error)

	var unit Models.OrganizationalUnit
	require.NoError(t, db.Where("name = ?", "VO Syd").First(&unit).Error)
	require.NotNil(t, unit.ChiefUserID)
	assert.Equal(t, chief.ID, *unit.ChiefUserID)

	var employee Models.Employee
	require.NoError(t, db.Where("name = ?", "Cecilia").First(&employee).Error)
	require.NotNil(t, employee.UserID)
	assert.Equal(t, chief.ID, *employee.UserID)

	again, err := Seed.Apply(ctx, db, Seed.File{
		Users: []Seed.User{{Name: "Chief", Email: "chief@EXAMPLE.org", Role: "vo_chief"}},
	})
	require.NoError(t, err)
	assert.Zero(t, again.Users)
}
