package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// ErrLawyerNotFound is returned for an unknown directory entry.
var ErrLawyerNotFound = errors.New("lawyer not found")

// Lawyers is the static lawyer directory. It never calls the backend.
type Lawyers struct {
	base
	load func() ([]models.Lawyer, error)
}

// NewLawyers creates the directory view over the embedded data.
func NewLawyers(deps Deps) *Lawyers {
	return &Lawyers{base: newBase(deps), load: models.Lawyers}
}

// List returns every lawyer, optionally narrowed to a specialty.
func (v *Lawyers) List(specialty string) ([]models.Lawyer, error) {
	all, err := v.load()
	if err != nil {
		v.notify(ui.Error("Failed to load the lawyer directory."))
		return nil, err
	}
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return all, nil
	}
	out := make([]models.Lawyer, 0, len(all))
	for _, l := range all {
		if strings.Contains(strings.ToLower(l.Specialty), strings.ToLower(specialty)) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Show returns one lawyer's profile.
func (v *Lawyers) Show(id int) (*models.Lawyer, error) {
	all, err := v.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			l := all[i]
			return &l, nil
		}
	}
	v.notify(ui.Error(fmt.Sprintf("Lawyer %d not found.", id)))
	return nil, fmt.Errorf("%w: %d", ErrLawyerNotFound, id)
}

// Open navigates to a lawyer's profile.
func (v *Lawyers) Open(id int) {
	v.navigate(ui.Route{Page: ui.PageLawyers, ID: fmt.Sprint(id)})
}
