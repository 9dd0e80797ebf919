package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/hashicorp/go-multierror"
)

// fieldErrors accumulates validation problems for one document.
type fieldErrors struct {
	errs *multierror.Error
}

func (f *fieldErrors) add(format string, args ...any) {
	f.errs = multierror.Append(f.errs, fmt.Errorf(format, args...))
}

func (f *fieldErrors) check(ok bool, format string, args ...any) {
	if !ok {
		f.add(format, args...)
	}
}

// err returns nil when nothing was recorded, otherwise a ValidationFailed
// listing every problem.
func (f *fieldErrors) err() error {
	if f.errs == nil || len(f.errs.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(f.errs.Errors))
	for i, e := range f.errs.Errors {
		msgs[i] = e.Error()
	}
	return common.ValidationFailed("Invalid input data. "+strings.Join(msgs, ". "), f.errs)
}
