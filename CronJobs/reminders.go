package CronJobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Barrelito/sam-a-sub001/AnnualCycle"
	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/Notifications"
	"github.com/Barrelito/sam-a-sub001/email"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StationReminder lists the open items of one station for the month.
type StationReminder struct {
	Station    Models.Station
	OpenItems  []Models.RecurringTask
	Recipients []string
}

// ReminderReport is the outcome of one run.
type ReminderReport struct {
	Year      int
	Month     int
	Stations  []StationReminder
	EmailSent int
	Errors    []string
}

// ReminderJob reminds station managers of this month's unfinished items.
type ReminderJob struct {
	cronScheduler *cron.Cron
	jobID         cron.EntryID
	schedule      string

	db      *gorm.DB
	tracker *AnnualCycle.Tracker
	mailer  email.Sender
	slack   Notifications.Poster
	Now     func() time.Time
}

// NewReminderJob creates a job. mailer and slack may be nil to disable
// that channel.
func NewReminderJob(db *gorm.DB, schedule string, mailer email.Sender, slack Notifications.Poster) *ReminderJob {
	return &ReminderJob{
		cronScheduler: cron.New(cron.WithSeconds()),
		schedule:      schedule,
		db:            db,
		tracker:       AnnualCycle.NewTracker(db),
		mailer:        mailer,
		slack:         slack,
		Now:           time.Now,
	}
}

// Start schedules the job and starts the scheduler
func (r *ReminderJob) Start() error {
	var err error
	r.jobID, err = r.cronScheduler.AddFunc(r.schedule, r.runScheduled)
	if err != nil {
		return errors.Wrapf(err, "schedule reminder job %q", r.schedule)
	}
	r.cronScheduler.Start()
	Logging.GetLogger().WithField("schedule", r.schedule).Info("reminder scheduler started")
	return nil
}

// Stop terminates the scheduler and waits for a running job
func (r *ReminderJob) Stop() {
	if r.cronScheduler != nil {
		<-r.cronScheduler.Stop().Done()
		Logging.GetLogger().Info("reminder scheduler stopped")
	}
}

// UpdateSchedule replaces the cron expression, e.g. "0 0 7 1 * *" for 07:00 on
// the first of every month.
func (r *ReminderJob) UpdateSchedule(schedule string) error {
	r.cronScheduler.Remove(r.jobID)
	id, err := r.cronScheduler.AddFunc(schedule, r.runScheduled)
	if err != nil {
		return errors.Wrapf(err, "update reminder schedule %q", schedule)
	}
	r.jobID = id
	r.schedule = schedule
	Logging.GetLogger().WithField("schedule", schedule).Info("reminder schedule updated")
	return nil
}

func (r *ReminderJob) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := r.RunNow(ctx); err != nil {
		Logging.GetLogger().WithError(err).Error("reminder run failed")
	}
}

// RunNow collects the open items for the current month and notifies.
// Delivery failures are recorded in the report, not returned.
func (r *ReminderJob) RunNow(ctx context.Context) (ReminderReport, error) {
	now := r.Now()
	report := ReminderReport{Year: now.Year(), Month: int(now.Month())}
	log := Logging.GetLogger().WithFields(logrus.Fields{"year": report.Year, "month": report.Month})

	reminders, err := r.collect(ctx, report.Year, report.Month)
	if err != nil {
		return report, err
	}
	report.Stations = reminders
	if len(reminders) == 0 {
		log.Info("no open items this month")
		return report, nil
	}

	if r.mailer != nil {
		for _, s := range reminders {
			if len(s.Recipients) == 0 {
				continue
			}
			err := r.mailer.Send(ctx, email.Message{
				To:      s.Recipients,
				Subject: fmt.Sprintf("Annual cycle %d-%02d: %d open items at %s", report.Year, report.Month, len(s.OpenItems), s.Station.Name),
				Body:    stationBody(s),
			})
			if err != nil {
				log.WithError(err).WithField("station", s.Station.Name).Warn("reminder email failed")
				report.Errors = append(report.Errors, err.Error())
				continue
			}
			report.EmailSent++
		}
	}

	if r.slack != nil {
		if err := r.slack.Post(ctx, slackSummary(report)); err != nil {
			log.WithError(err).Warn("reminder slack post failed")
			report.Errors = append(report.Errors, err.Error())
		}
	}

	log.WithFields(logrus.Fields{
		"stations": len(reminders),
		"emails":   report.EmailSent,
		"errors":   len(report.Errors),
	}).Info("reminders sent")
	return report, nil
}

func (r *ReminderJob) collect(ctx context.Context, year, month int) ([]StationReminder, error) {
	items, err := r.tracker.ListItems(ctx, AnnualCycle.ItemFilter{Month: &month})
	if err != nil || len(items) == 0 {
		return nil, err
	}

	var stations []Models.Station
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&stations).Error; err != nil {
		return nil, errors.Wrap(err, "list stations")
	}

	var reminders []StationReminder
	for _, station := range stations {
		completions, err := r.tracker.ListCompletions(ctx, year, AnnualCycle.Station(station.ID))
		if err != nil {
			return nil, err
		}
		finished := make(map[uint]bool, len(completions))
		for _, c := range completions {
			if AnnualCycle.IsFinished(c.Status) {
				finished[c.TaskID] = true
			}
		}

		reminder := StationReminder{Station: station}
		for _, item := range items {
			if !finished[item.ID] {
				reminder.OpenItems = append(reminder.OpenItems, item)
			}
		}
		if len(reminder.OpenItems) == 0 {
			continue
		}

		reminder.Recipients, err = r.managerEmails(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func (r *ReminderJob) managerEmails(ctx context.Context, stationID uint) ([]string, error) {
	var addresses []string
	err := r.db.WithContext(ctx).
		Model(&Models.User{}).
		Joins("JOIN user_station_links ON user_station_links.user_id = users.id").
		Where("user_station_links.station_id = ? AND users.role = ?", stationID, Models.RoleStationManager).
		Order("users.email ASC").
		Pluck("users.email", &addresses).Error
	if err != nil {
		return nil, errors.Wrap(err, "list station managers")
	}
	return addresses, nil
}

func stationBody(s StationReminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following items are still open for %s:\n\n", s.Station.Name)
	for _, item := range s.OpenItems {
		fmt.Fprintf(&b, "- %s", item.Title)
		if item.Category != "" {
			fmt.Fprintf(&b, " (%s)", item.Category)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func slackSummary(report ReminderReport) string {
	lines := make([]string, 0, len(report.Stations))
	for _, s := range report.Stations {
		lines = append(lines, fmt.Sprintf("• %s: %d open", s.Station.Name, len(s.OpenItems)))
	}
	sort.Strings(lines)
	return fmt.Sprintf("*Annual cycle %d-%02d*\n%s", report.Year, report.Month, strings.Join(lines, "\n"))
}
