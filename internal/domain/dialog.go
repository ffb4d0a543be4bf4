package domain

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
)

// CategoryIntroduction marks the single dialog played before any question.
const CategoryIntroduction = "introduction"

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

var validate = validator.New()

// Dialog is one interview dialog record: the introduction or a question.
// Extra carries any additional content attributes stored with the record.
// ID is the store key and is never serialized to clients. HasText marks a
// record that carries a dialog attribute even when it is empty.
type Dialog struct {
	ID       string `validate:"-"`
	Category string `validate:"required"`
	Text     string
	HasText  bool
	Extra    map[string]any
}

// IsIntroduction reports whether d is the introduction dialog.
func (d Dialog) IsIntroduction() bool {
	return d.Category == CategoryIntroduction
}

// Validate checks the presence of required attributes before a record is
// written. Records read back are served as stored and are not validated.
func (d Dialog) Validate() error {
	return validate.Struct(d)
}

// MarshalJSON flattens the record into a single object: category, dialog and
// every extra attribute side by side, as the browser client expects.
func (d Dialog) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+2)
	for k, v := range d.Extra {
		out[k] = v
	}
	out["category"] = d.Category
	if d.Text != "" || d.HasText {
		out["dialog"] = d.Text
	}
	return json.Marshal(out)
}
