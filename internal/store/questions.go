package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// QuestionsVersion is the store file format this build reads and writes.
const QuestionsVersion = 1

const (
	DefaultType    = "general"
	DefaultChapter = "unspecified"
)

// Question is one record in the question pool.
type Question struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Type     string `json:"type"`
	Chapter  string `json:"chapter"`
	Source   string `json:"source"`
	Used     bool   `json:"used"`
}

// QuestionSet is the in-memory question pool, in stored order.
type QuestionSet struct {
	Questions []Question
}

type questionFile struct {
	Version   int        `json:"version"`
	Questions []Question `json:"questions"`
}

// StoreError reports a question file that is missing, unreadable, corrupt
// or could not be written.
type StoreError struct {
	Path string
	Op   string // "load" or "save"
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("question store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// FirstUnused returns the first record with used=false in stored order.
func (s *QuestionSet) FirstUnused() (*Question, bool) {
	for i := range s.Questions {
		if !s.Questions[i].Used {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// Used returns the records already posted, in stored order.
func (s *QuestionSet) Used() []Question {
	var out []Question
	for _, q := range s.Questions {
		if q.Used {
			out = append(out, q)
		}
	}
	return out
}

// Unused counts records still available.
func (s *QuestionSet) Unused() int {
	n := 0
	for _, q := range s.Questions {
		if !q.Used {
			n++
		}
	}
	return n
}

// NextID returns max(id)+1, or 1 for an empty set.
func (s *QuestionSet) NextID() int {
	maxID := 0
	for _, q := range s.Questions {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	return maxID + 1
}

// Append adds q with the next free id and returns the stored copy.
func (s *QuestionSet) Append(q Question) *Question {
	q.ID = s.NextID()
	applyDefaults(&q)
	s.Questions = append(s.Questions, q)
	return &s.Questions[len(s.Questions)-1]
}

// Find returns the record with the given id.
func (s *QuestionSet) Find(id int) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// MarkUsed flips the used flag of the record with the given id.
func (s *QuestionSet) MarkUsed(id int) error {
	q, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("question %d not in store", id)
	}
	q.Used = true
	return nil
}

// LoadQuestions reads and validates the store file at path. Both the
// versioned object and the legacy bare array are accepted. Missing type
// and chapter fields get their defaults.
func LoadQuestions(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Path: path, Op: "load", Err: err}
	}

	qs, err := decodeQuestions(data)
	if err != nil {
		return nil, &StoreError{Path: path, Op: "load", Err: err}
	}
	return qs, nil
}

func decodeQuestions(data []byte) (*QuestionSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty file")
	}

	var questions []Question
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	case '{':
		var f questionFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if f.Version > QuestionsVersion {
			return nil, fmt.Errorf("unsupported version %d (max %d)", f.Version, QuestionsVersion)
		}
		questions = f.Questions
	default:
		return nil, errors.New("decode: expected JSON object or array")
	}

	seen := make(map[int]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID <= 0 {
			return nil, fmt.Errorf("record %d: id must be positive, got %d", i, q.ID)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("record %d: duplicate id %d", i, q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("record %d (id %d): empty question text", i, q.ID)
		}
		applyDefaults(q)
	}

	return &QuestionSet{Questions: questions}, nil
}

func applyDefaults(q *Question) {
	if strings.TrimSpace(q.Type) == "" {
		q.Type = DefaultType
	}
	if strings.TrimSpace(q.Chapter) == "" {
		q.Chapter = DefaultChapter
	}
}

// SaveQuestions writes the set to path atomically: the file is either
// fully replaced or left untouched.
func SaveQuestions(path string, set *QuestionSet) error {
	if err := writeQuestions(path, set); err != nil {
		return &StoreError{Path: path, Op: "save", Err: err}
	}
	return nil
}

func writeQuestions(path string, set *QuestionSet) error {
	questions := set.Questions
	if questions == nil {
		questions = []Question{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(questionFile{Version: QuestionsVersion, Questions: questions}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".questions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpPath, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpPath, 0o644)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// QuestionFile is a question repository backed by one JSON file.
type QuestionFile struct {
	Path string
}

// Load reads the question set from the file.
func (f QuestionFile) Load() (*QuestionSet, error) {
	return LoadQuestions(f.Path)
}

// Save replaces the file with set.
func (f QuestionFile) Save(set *QuestionSet) error {
	return SaveQuestions(f.Path, set)
}
