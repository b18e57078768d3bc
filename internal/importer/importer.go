// Package importer seeds the directory tables (contacts, tools, training
// courses, charters) from a YAML file.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/referents-ia/portail/internal/charters"
	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/progress"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
	"gopkg.in/yaml.v3"
)

// File is the layout of an import file. Every section is optional.
type File struct {
	Contacts []contacts.Contact `yaml:"contacts"`
	Tools    []tools.Tool       `yaml:"tools"`
	Courses  []training.Course  `yaml:"courses"`
	Charters []charters.Charter `yaml:"charters"`
}

// Len returns the number of rows in the file.
func (f *File) Len() int {
	return len(f.Contacts) + len(f.Tools) + len(f.Courses) + len(f.Charters)
}

// Parse decodes an import file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &f, nil
}

// RowError describes a row that could not be imported.
type RowError struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Err     string `json:"error"`
}

func (e RowError) String() string {
	return fmt.Sprintf("%s[%d] %q: %s", e.Section, e.Index, e.Name, e.Err)
}

// Result summarizes an import.
type Result struct {
	Imported map[string]int `json:"imported"`
	Errors   []RowError     `json:"errors,omitempty"`
}

// Total returns the number of imported rows.
func (r *Result) Total() int {
	n := 0
	for _, v := range r.Imported {
		n += v
	}
	return n
}

// Importer writes rows through the package stores.
type Importer struct {
	Contacts *contacts.Store
	Tools    *tools.Store
	Training *training.Store
	Charters *charters.Store
}

// Run imports every row of f. A failing row is recorded in the result and
// does not stop the import; only context cancellation does.
func (im *Importer) Run(ctx context.Context, f *File, rep progress.Reporter) (*Result, error) {
	if rep == nil {
		rep = progress.Nop{}
	}
	res := &Result{Imported: map[string]int{}}
	rep.Start(f.Len())
	defer rep.Finish()

	done := 0
	step := func(section string, i int, name string, err error) {
		done++
		rep.Update(done, section+": "+name)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Section: section, Index: i, Name: name, Err: err.Error()})
			return
		}
		res.Imported[section]++
	}

	for i := range f.Contacts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c := &f.Contacts[i]
		step("contacts", i, c.Name, im.importContact(ctx, c))
	}
	for i := range f.Tools {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		t := &f.Tools[i]
		step("tools", i, t.Name, im.importTool(ctx, t))
	}
	for i := range f.Courses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c := &f.Courses[i]
		step("courses", i, c.Title, im.importCourse(ctx, c))
	}
	for i := range f.Charters {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c := &f.Charters[i]
		step("charters", i, c.Title, im.importCharter(ctx, c))
	}
	return res, nil
}

func (im *Importer) importContact(ctx context.Context, c *contacts.Contact) error {
	if im.Contacts == nil {
		return fmt.Errorf("contacts are not importable here")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if c.ContactType == contacts.AllTypes {
		return fmt.Errorf("%q is not a contact type", contacts.AllTypes)
	}
	return im.Contacts.Create(ctx, c)
}

func (im *Importer) importTool(ctx context.Context, t *tools.Tool) error {
	if im.Tools == nil {
		return fmt.Errorf("tools are not importable here")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if t.Category == tools.AllCategories {
		return fmt.Errorf("%q is not a category", tools.AllCategories)
	}
	return im.Tools.Create(ctx, t)
}

func (im *Importer) importCourse(ctx context.Context, c *training.Course) error {
	if im.Training == nil {
		return fmt.Errorf("training courses are not importable here")
	}
	return im.Training.Create(ctx, c)
}

func (im *Importer) importCharter(ctx context.Context, c *charters.Charter) error {
	if im.Charters == nil {
		return fmt.Errorf("charters are not importable here")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return im.Charters.Create(ctx, c)
}
