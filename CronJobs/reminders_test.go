package CronJobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Barrelito/sam-a-sub001/AnnualCycle"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/email"
	"github.com/Barrelito/sam-a-sub001/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePoster struct {
	texts []string
}

func (f *fakePoster) Post(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func TestReminderJobRunNow(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db)
	items := []Models.RecurringTask{
		{Title: "Vehicle inspection", Month: testutil.Month(3), Category: "fleet", Year: 2025},
		{Title: "Medication audit", Month: testutil.Month(3), Category: "medical", Year: 2025},
		{Title: "Fire drill", Month: testutil.Month(9), Year: 2025},
	}
	require.NoError(t, db.Create(&items).Error)

	tracker := AnnualCycle.NewTracker(db)
	_, err := tracker.RecordCompletion(context.Background(), f.Manager.Caller(),
		AnnualCycle.CompletionInput{ItemID: items[0].ID, Year: 2025, StationID: &f.StationA.ID})
	require.NoError(t, err)
	// in progress does not count as finished
	_, err = tracker.RecordCompletion(context.Background(), f.Manager.Caller(),
		AnnualCycle.CompletionInput{ItemID: items[1].ID, Year: 2025, StationID: &f.StationB.ID, Status: Models.StatusInProgress})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	poster := &fakePoster{}
	job := NewReminderJob(db, "0 0 7 1 * *", mailer, poster)
	job.Now = func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) }

	report, err := job.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, 3, report.Month)
	require.Len(t, report.Stations, 2)

	assert.Equal(t, f.StationA.ID, report.Stations[0].Station.ID)
	require.Len(t, report.Stations[0].OpenItems, 1)
	assert.Equal(t, "Medication audit", report.Stations[0].OpenItems[0].Title)
	assert.Equal(t, []string{"manager@example.org"}, report.Stations[0].Recipients)

	assert.Equal(t, f.StationB.ID, report.Stations[1].Station.ID)
	assert.Len(t, report.Stations[1].OpenItems, 2)

	assert.Equal(t, 2, report.EmailSent)
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[0].Body, "Medication audit")
	assert.NotContains(t, mailer.sent[0].Body, "Vehicle inspection")

	require.Len(t, poster.texts, 1)
	assert.Contains(t, poster.texts[0], "Station A: 1 open")
	assert.Contains(t, poster.texts[0], "Station B: 2 open")
	assert.Empty(t, report.Errors)
}

func TestReminderJobNothingOpen(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.Seed(t, db)
	require.NoError(t, db.Create(&Models.RecurringTask{Title: "Fire drill", Month: testutil.Month(9), Year: 2025}).Error)

	poster := &fakePoster{}
	job := NewReminderJob(db, "0 0 7 1 * *", nil, poster)
	job.Now = func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) }

	report, err := job.RunNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Stations)
	assert.Empty(t, poster.texts)
}

func TestReminderJobRecordsDeliveryErrors(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.Seed(t, db)
	require.NoError(t, db.Create(&Models.RecurringTask{Title: "Vehicle inspection", Month: testutil.Month(3), Year: 2025}).Error)

	job := NewReminderJob(db, "0 0 7 1 * *", &fakeMailer{err: errors.New("smtp down")}, nil)
	job.Now = func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) }

	report, err := job.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.EmailSent)
	assert.Len(t, report.Errors, 2)
}

func TestReminderJobSchedule(t *testing.T) {
	db := testutil.NewTestDB(t)

	job := NewReminderJob(db, "not a schedule", nil, nil)
	assert.Error(t, job.Start())

	job = NewReminderJob(db, "0 0 7 1 * *", nil, nil)
	require.NoError(t, job.Start())
	require.NoError(t, job.UpdateSchedule("0 30 6 * * MON"))
	assert.Error(t, job.UpdateSchedule("bogus"))
	job.Stop()
}
