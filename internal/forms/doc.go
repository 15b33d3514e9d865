// Package forms binds HTML form submissions and validates them.
//
// Each form is a plain struct with `form` tags for gin binding and `validate`
// tags checked by a shared validator instance. Validation never fails with an
// error for bad user input: problems are collected into Errors keyed by the
// form field name so templates can render them inline next to each input.
//
//	var form forms.BookForm
//	if err := forms.BindBook(c, &form); err != nil { ... }
//	if errs := form.Validate(maxUpload); !errs.Valid() {
//	    // re-render with form and errs
//	}
package forms
