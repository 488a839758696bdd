package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type ProblemType string

const (
	ProblemTypeStandard ProblemType = "standard"
	ProblemTypeStrict   ProblemType = "strict"
)

// Catalog is the read-only set of problems and languages the judge accepts.
type Catalog struct {
	Problems  []Problem  `json:"problems"`
	Languages []Language `json:"languages"`

	problemIndex  map[uint32]int
	languageIndex map[string]int
}

type Problem struct {
	ID    uint32      `json:"id"`
	Name  string      `json:"name"`
	Type  ProblemType `json:"type"`
	Cases []Case      `json:"cases"`
}

type Case struct {
	Score       float64 `json:"score"`
	InputFile   string  `json:"input_file"`
	AnswerFile  string  `json:"answer_file"`
	TimeLimit   uint64  `json:"time_limit"`
	MemoryLimit uint64  `json:"memory_limit"`
}

type Language struct {
	Name     string   `json:"name"`
	FileName string   `json:"file_name"`
	Command  []string `json:"command"`
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := catalog.index(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// NewCatalog builds an indexed catalog from in-memory definitions.
func NewCatalog(problems []Problem, languages []Language) (*Catalog, error) {
	catalog := &Catalog{Problems: problems, Languages: languages}
	if err := catalog.index(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (c *Catalog) index() error {
	c.problemIndex = make(map[uint32]int, len(c.Problems))
	for i := range c.Problems {
		p := &c.Problems[i]
		if _, dup := c.problemIndex[p.ID]; dup {
			return fmt.Errorf("duplicate problem id %d in catalog", p.ID)
		}
		switch p.Type {
		case "":
			p.Type = ProblemTypeStandard
		case ProblemTypeStandard, ProblemTypeStrict:
		default:
			return fmt.Errorf("problem %d: unsupported type %q", p.ID, p.Type)
		}
		c.problemIndex[p.ID] = i
	}

	c.languageIndex = make(map[string]int, len(c.Languages))
	for i, l := range c.Languages {
		if _, dup := c.languageIndex[l.Name]; dup {
			return fmt.Errorf("duplicate language %q in catalog", l.Name)
		}
		if len(l.Command) == 0 {
			return fmt.Errorf("language %q has no command", l.Name)
		}
		c.languageIndex[l.Name] = i
	}
	return nil
}

func (c *Catalog) Problem(id uint32) (*Problem, bool) {
	i, ok := c.problemIndex[id]
	if !ok {
		return nil, false
	}
	return &c.Problems[i], true
}

func (c *Catalog) Language(name string) (*Language, bool) {
	i, ok := c.languageIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Languages[i], true
}

// ProblemIDs returns catalog problem ids in declaration order.
func (c *Catalog) ProblemIDs() []uint32 {
	ids := make([]uint32, len(c.Problems))
	for i, p := range c.Problems {
		ids[i] = p.ID
	}
	return ids
}
