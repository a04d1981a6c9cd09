// Package jobs runs the periodic maintenance work: lifting timed
// pauses once their resume date arrives, and the per-user unbury sweep
// that wakes buried cards at their day boundary.
package jobs

import (
	"fmt"
	"io"
	"time"

	"github.com/palabra-app/palabra/internal/models"
	"github.com/palabra-app/palabra/internal/suspend"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler owns the cron loop for the periodic jobs.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
	out  io.Writer
}

// NewScheduler builds a scheduler bound to the given database. Progress
// lines go to out when it is non-nil.
func NewScheduler(db *gorm.DB, out io.Writer) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(cronParser)),
		db:   db,
		out:  out,
	}
}

// RegisterResumeExpired schedules the resume-expired job on the given
// 5-field cron expression.
func (s *Scheduler) RegisterResumeExpired(expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		if err := RunResumeExpired(s.db, s.out); err != nil && s.out != nil {
			fmt.Fprintf(s.out, "resume-expired job failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("jobs: schedule resume-expired %q: %w", expr, err)
	}
	return nil
}

// RegisterUnbury schedules the per-user unbury sweep on the given
// 5-field cron expression.
func (s *Scheduler) RegisterUnbury(expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		if err := RunUnbury(s.db, s.out); err != nil && s.out != nil {
			fmt.Fprintf(s.out, "unbury job failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("jobs: schedule unbury %q: %w", expr, err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// NextRun reports when a 5-field cron expression would next fire.
func NextRun(expr string) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("jobs: parse cron %q: %w", expr, err)
	}
	return sched.Next(time.Now()), nil
}

// RunResumeExpired lifts every timed pause whose resume date has
// passed. Safe to run at any time; it is a no-op when nothing is due.
func RunResumeExpired(db *gorm.DB, out io.Writer) error {
	n, err := suspend.ResumeExpiredTimedPauses(db)
	if err != nil {
		return err
	}
	if out != nil && n > 0 {
		fmt.Fprintf(out, "resumed %d card(s) with expired pauses\n", n)
	}
	return nil
}

// RunUnbury lifts buried cards user by user, each user's sweep in its
// own transaction so one failure does not block the rest. Returns the
// first error encountered after finishing the sweep.
func RunUnbury(db *gorm.DB, out io.Writer) error {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return fmt.Errorf("jobs: list users: %w", err)
	}

	var firstErr error
	for _, user := range users {
		n, err := suspend.UnburyDueToday(db, user.ID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if out != nil {
				fmt.Fprintf(out, "unbury for %s failed: %v\n", user.Name, err)
			}
			continue
		}
		if out != nil && n > 0 {
			fmt.Fprintf(out, "unburied %d card(s) for %s\n", n, user.Name)
		}
	}
	return firstErr
}
