package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aretw0/nudge/pkg/core"
)

// createRequest is the POST body. Reminder is kept as text so that the empty
// string sent by simple forms means "no reminder".
type createRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Reminder *string `json:"reminder"`
}

// updateRequest is the PUT body. Absent keys leave fields untouched.
type updateRequest struct {
	Title     core.Field[string] `json:"title"`
	Content   core.Field[string] `json:"content"`
	Category  core.Field[string] `json:"category"`
	Reminder  core.Field[string] `json:"reminder"`
	Completed core.Field[bool]   `json:"completed"`
}

func (h *handlers) list(c *fiber.Ctx) error {
	notes, err := h.svc.ListNotes(c.UserContext())
	if err != nil {
		return err
	}

	filter := core.Filter{
		Category:    c.Query("category"),
		PendingOnly: c.QueryBool("pending", false),
	}
	notes, err = core.FilterNotes(notes, filter)
	if err != nil {
		return badRequest("%v", err)
	}
	if notes == nil {
		notes = []core.Note{}
	}
	return c.JSON(notes)
}

func (h *handlers) show(c *fiber.Ctx) error {
	note, err := h.svc.GetNote(c.UserContext(), noteID(c))
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (h *handlers) create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed body: %v", err)
	}

	in := core.NoteInput{Title: req.Title, Content: req.Content, Category: req.Category}
	if req.Reminder != nil {
		r, err := parseReminder(*req.Reminder)
		if err != nil {
			return err
		}
		in.Reminder = r
	}

	note, err := h.svc.CreateNote(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *handlers) update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed body: %v", err)
	}

	p := core.Patch{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Completed: req.Completed,
	}
	if req.Completed.Present && req.Completed.Null {
		return badRequest("completed cannot be null")
	}
	if req.Reminder.Present {
		r, err := parseReminder(req.Reminder.Value)
		if err != nil {
			return err
		}
		if req.Reminder.Null || r == nil {
			p.Reminder = core.Clear[time.Time]()
		} else {
			p.Reminder = core.Set(*r)
		}
	}

	note, err := h.svc.UpdateNote(c.UserContext(), noteID(c), p)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (h *handlers) remove(c *fiber.Ctx) error {
	if err := h.svc.DeleteNote(c.UserContext(), noteID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Note deleted successfully"})
}

// noteID parses the :id parameter. Anything that is not a positive integer
// maps to id 0, which never exists.
func noteID(c *fiber.Ctx) int {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// parseReminder accepts RFC 3339 timestamps. An empty string means no reminder.
func parseReminder(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, badRequest("reminder must be an RFC 3339 timestamp: %q", s)
	}
	return &t, nil
}
