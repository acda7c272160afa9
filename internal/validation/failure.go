package validation

import (
	"fmt"
	"strings"

	"metaed/internal/model"
)

type Category string

const (
	CategoryError   Category = "error"
	CategoryWarning Category = "warning"
)

// Failure: одна диагностика построения модели.
type Failure struct {
	ValidatorName string       `json:"validatorName" yaml:"validatorName"`
	Category      Category     `json:"category" yaml:"category"`
	Message       string       `json:"message" yaml:"message"`
	Source        model.Source `json:"source" yaml:"source"`
}

func (f Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", f.Category, f.ValidatorName, f.Message)
	if !f.Source.IsZero() {
		fmt.Fprintf(&b, " at %s", f.Source)
	}
	return b.String()
}

func (f Failure) IsError() bool { return f.Category == CategoryError }

// List: несколько диагностик как один error.
type List []Failure

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no validation failures"
	case 1:
		return l[0].Error()
	}
	lines := make([]string, len(l))
	for i, f := range l {
		lines[i] = f.Error()
	}
	return fmt.Sprintf("%d validation failures:\n%s", len(l), strings.Join(lines, "\n"))
}

// Err: nil для пустого списка.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
