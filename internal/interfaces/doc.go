// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - AuthorStore: author CRUD and listing (internal/http/stores.go)
//   - BookStore: book CRUD, genres, languages and title search (internal/http/stores.go)
//   - LoanStore: copies on loan, renewals and returns (internal/http/stores.go)
//   - ReportStore: raw SQL aggregates for the stats API (internal/http/stores.go)
//   - UserRepository: accounts and API tokens (internal/auth/service.go)
//
// ## Audit Interfaces
//
//   - AuditLogger: catalog and loan change history (internal/http/stores.go)
//
// ## Background Work Interfaces
//
//   - TaskQueue: enqueue and inspect background tasks (internal/http/stores.go)
//   - Enqueuer: what the cron scheduler hands its jobs to (internal/scheduler/overdue.go)
//   - OverdueFinder, OverdueRecorder: inputs of the overdue scan (internal/tasks/overdue_scan.go)
//   - AuditEventCleaner: audit retention (internal/tasks/cleanup_audit.go)
//
// # Adding a New Background Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type ReminderTask struct {
//         Day string `json:"day,omitempty"`
//     }
//
//     func (t ReminderTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: "send_reminders", MaxAttempts: 3}
//     }
//
//     func NewReminderQueue(finder OverdueFinder) backlite.Queue {
//         return backlite.NewQueue(ReminderProcessor(finder))
//     }
//
//  2. Register the queue in entrypoint.go
//
//  3. Add an Enqueue method to tasks.Client and, if it should run on a
//     schedule, to scheduler.Enqueuer
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reservations):
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods, returning database.ErrNotFound for
//     missing rows via database.TranslateError
//
//  4. Add compile-time check:
//
//     var _ http.ReservationStore = (*reservations.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
