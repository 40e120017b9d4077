// Package nudge is the composition root of a small personal notes store with
// time-based reminders.
//
// It connects the core domain (notes, patches, the snapshot store contract)
// with the storage adapters and the reminder runner.
//
// Features:
//
//   - **Durable store**: every mutation is a read-modify-write of the whole
//     collection under a lock, written atomically.
//   - **Sequential ids**: a new note gets max(existing id) + 1.
//   - **Partial updates**: only the fields present in a patch change; null clears.
//   - **Reminders**: a scanner reports each reminder exactly once, in the first
//     scan whose window (lastScan, now] contains it.
//   - **Adapters**: a JSON/YAML/CSV file vault (default) or SQLite.
//
// Usage:
//
//	svc, err := nudge.New("./vault", nudge.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	note, err := svc.CreateNote(ctx, core.NoteInput{Title: "Call mom", Reminder: &at})
//
//	runner := nudge.NewRunner(svc, reminder.LogNotifier(logger))
//	err = runner.Start(ctx)
package nudge
