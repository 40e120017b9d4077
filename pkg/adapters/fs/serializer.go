package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/nudge/pkg/core"
	"gopkg.in/yaml.v3"
)

// Serializer defines how a snapshot is encoded in a specific file format.
type Serializer interface {
	// Decode parses data into a snapshot.
	Decode(data []byte) (core.Snapshot, error)
	// Encode converts the snapshot to bytes.
	Encode(snap core.Snapshot) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{},
		".csv":  CSVSerializer{},
	}
}

// SerializerFor returns the serializer registered for ext (with or without the dot).
func SerializerFor(ext string) (Serializer, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	s, ok := DefaultSerializers()[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("no serializer for %q", ext)
	}
	return s, nil
}

// nonNil makes an empty collection encode as [] rather than null.
func nonNil(snap core.Snapshot) core.Snapshot {
	if snap.Notes == nil {
		snap.Notes = []core.Note{}
	}
	return snap
}

// --- JSON Serializer ---

// JSONSerializer reads and writes `{"notes": [...]}` documents.
type JSONSerializer struct{}

func (JSONSerializer) Decode(data []byte) (core.Snapshot, error) {
	var snap core.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, errors.New("empty document")
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func (JSONSerializer) Encode(snap core.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(nonNil(snap), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer reads and writes the same structure as YAML.
type YAMLSerializer struct{}

func (YAMLSerializer) Decode(data []byte) (core.Snapshot, error) {
	var snap core.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, errors.New("empty document")
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func (YAMLSerializer) Encode(snap core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(nonNil(snap)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- CSV Serializer ---

var csvHeader = []string{"id", "title", "content", "category", "reminder", "completed", "createdAt", "updatedAt"}

// CSVSerializer writes one row per note. An empty reminder cell means no reminder.
type CSVSerializer struct{}

func (CSVSerializer) Decode(data []byte) (core.Snapshot, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	headers, err := reader.Read()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.TrimSpace(h)] = i
	}
	for _, h := range csvHeader {
		if _, ok := cols[h]; !ok {
			return core.Snapshot{}, fmt.Errorf("csv missing '%s' column", h)
		}
	}

	snap := core.Snapshot{Notes: []core.Note{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.Snapshot{}, err
		}

		n, err := noteFromRow(row, cols)
		if err != nil {
			return core.Snapshot{}, err
		}
		snap.Notes = append(snap.Notes, n)
	}
	return snap, nil
}

func noteFromRow(row []string, cols map[string]int) (core.Note, error) {
	var n core.Note
	var err error

	if n.ID, err = strconv.Atoi(row[cols["id"]]); err != nil {
		return n, fmt.Errorf("invalid id %q: %w", row[cols["id"]], err)
	}
	n.Title = row[cols["title"]]
	n.Content = row[cols["content"]]
	n.Category = row[cols["category"]]

	if v := row[cols["reminder"]]; v != "" {
		r, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return n, fmt.Errorf("invalid reminder for note %d: %w", n.ID, err)
		}
		n.Reminder = &r
	}
	if n.Completed, err = strconv.ParseBool(row[cols["completed"]]); err != nil {
		return n, fmt.Errorf("invalid completed flag for note %d: %w", n.ID, err)
	}
	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, row[cols["createdAt"]]); err != nil {
		return n, fmt.Errorf("invalid createdAt for note %d: %w", n.ID, err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, row[cols["updatedAt"]]); err != nil {
		return n, fmt.Errorf("invalid updatedAt for note %d: %w", n.ID, err)
	}
	return n, nil
}

func (CSVSerializer) Encode(snap core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, n := range snap.Sorted() {
		reminder := ""
		if n.Reminder != nil {
			reminder = n.Reminder.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			strconv.Itoa(n.ID),
			n.Title,
			n.Content,
			n.Category,
			reminder,
			strconv.FormatBool(n.Completed),
			n.CreatedAt.UTC().Format(time.RFC3339Nano),
			n.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
